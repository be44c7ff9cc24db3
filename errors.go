/*
 * errors.go, part of gomc.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package mc

import (
	"errors"
	"fmt"
	"strings"
)

//Error is the error type returned by goMC packages. It carries a message, the list of
//functions the error went through on its way up, whether the run must stop, and the
//sentinel error it wraps, if any.
type Error struct {
	message  string
	deco     []string
	critical bool
	base     error
}

//NewError returns a new *Error. base can be nil; if not, errors.Is(err,base) will be true.
func NewError(message string, critical bool, base error, deco ...string) *Error {
	return &Error{message: message, deco: deco, critical: critical, base: base}
}

//Error returns a string with an error message.
func (err *Error) Error() string {
	if len(err.deco) == 0 {
		return err.message
	}
	return fmt.Sprintf("%s [%s]", err.message, strings.Join(err.deco, " <- "))
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice. An empty string just returns the current slice.
func (err *Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical returns whether the error should terminate the simulation.
func (err *Error) Critical() bool { return err.critical }

//Unwrap returns the sentinel error this error is an instance of, if any.
func (err *Error) Unwrap() error { return err.base }

//Sentinels for the conditions that terminate a run.
var (
	ErrNoEligibleMolecule = errors.New("no eligible molecule of the requested kind")
	ErrImageOverflow      = errors.New("Kmax exceeded due to large change in system volume. Restart the simulation from restart files.")
	ErrConfig             = errors.New("invalid configuration")
)

//IsCritical returns true if err, or any error it wraps, is critical.
func IsCritical(err error) bool {
	var c interface{ Critical() bool }
	if errors.As(err, &c) {
		return c.Critical()
	}
	return false
}

//errDecorate adds the caller's name to err if it is an *Error, and returns it.
func errDecorate(err error, caller string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrBadBox       = PanicMsg("goMC: box index out of range")
	ErrBadMolecule  = PanicMsg("goMC: molecule index out of range")
	ErrShape        = PanicMsg("goMC: dimension mismatch")
	ErrSingularCell = PanicMsg("goMC: singular cell basis")
)
