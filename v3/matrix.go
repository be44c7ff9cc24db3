package v3

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space, stored row-major, one vector per row.
//It embeds a gonum Dense so every gonum operation is available on it.
type Matrix struct {
	*mat.Dense
}

//Dense2Matrix wraps a Dense with 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	_, c := A.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

//Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	return &Matrix{mat.NewDense(vecs, 3, make([]float64, 3*vecs))}
}

//NewMatrix returns a Matrix built on data, which is not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	l := len(data)
	if l == 0 || l%3 != 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by 3", l), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/3, 3, data)}, nil
}

//NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//Len is the same as NVecs
func (F *Matrix) Len() int {
	return F.NVecs()
}

//VecView returns a view of the ith vector of F.
func (F *Matrix) VecView(i int) *Matrix {
	return &Matrix{F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)}
}

//View returns a view of n vectors of F starting from the ith.
//Changes in the view are reflected in F and vice-versa.
func (F *Matrix) View(i, n int) *Matrix {
	return &Matrix{F.Dense.Slice(i, i+n, 0, 3).(*mat.Dense)}
}

//Vec3 returns a copy of the ith vector as an array.
func (F *Matrix) Vec3(i int) [3]float64 {
	raw := F.RawMatrix()
	s := raw.Data[i*raw.Stride : i*raw.Stride+3]
	return [3]float64{s[0], s[1], s[2]}
}

//SetVec3 sets the ith vector to v.
func (F *Matrix) SetVec3(i int, v [3]float64) {
	raw := F.RawMatrix()
	copy(raw.Data[i*raw.Stride:i*raw.Stride+3], v[:])
}

//Clone returns a copy of F that shares no memory with it.
func (F *Matrix) Clone() *Matrix {
	return &Matrix{mat.DenseCopyOf(F.Dense)}
}

//Translate puts in F the vectors of A, each displaced by d.
func (F *Matrix) Translate(A *Matrix, d [3]float64) {
	n := A.NVecs()
	if F.NVecs() != n {
		panic(ErrShape)
	}
	for i := 0; i < n; i++ {
		v := A.Vec3(i)
		F.SetVec3(i, [3]float64{v[0] + d[0], v[1] + d[1], v[2] + d[2]})
	}
}

//AddVec adds the 1x3 vec to each vector of A, putting the result in F.
func (F *Matrix) AddVec(A, vec *Matrix) {
	if vec.NVecs() != 1 {
		panic(ErrShape)
	}
	F.Translate(A, vec.Vec3(0))
}

//SubVec subtracts the 1x3 vec from each vector of A, putting the result in F.
func (F *Matrix) SubVec(A, vec *Matrix) {
	if vec.NVecs() != 1 {
		panic(ErrShape)
	}
	v := vec.Vec3(0)
	F.Translate(A, [3]float64{-v[0], -v[1], -v[2]})
}

//SetVecs sets the vectors of F with the indexes in clist to the
//vectors of A, in order.
func (F *Matrix) SetVecs(A *Matrix, clist []int) {
	if A.NVecs() < len(clist) || F.NVecs() < len(clist) {
		panic(ErrShape)
	}
	for k, v := range clist {
		F.SetVec3(v, A.Vec3(k))
	}
}

//SomeVecs puts in F the vectors of A with the indexes in clist, in order.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	if F.NVecs() != len(clist) {
		panic(ErrShape)
	}
	for k, v := range clist {
		F.SetVec3(k, A.Vec3(v))
	}
}

//Mul wraps Dense.Mul so the receiver can also be one of the operands.
func (F *Matrix) Mul(A, B mat.Matrix) {
	if a, ok := A.(*Matrix); ok {
		A = a.Dense
	}
	if b, ok := B.(*Matrix); ok {
		B = b.Dense
	}
	if A == mat.Matrix(F.Dense) || B == mat.Matrix(F.Dense) {
		tmp := mat.NewDense(F.NVecs(), 3, nil)
		tmp.Mul(A, B)
		F.Dense.Copy(tmp)
		return
	}
	F.Dense.Mul(A, B)
}

//String returns a neat representation of the Matrix.
func (F *Matrix) String() string {
	n := F.NVecs()
	v := make([]string, 0, n)
	for i := 0; i < n; i++ {
		r := F.Vec3(i)
		v = append(v, fmt.Sprintf("%8.3f %8.3f %8.3f", r[0], r[1], r[2]))
	}
	return "\n[" + strings.Join(v, "\n ") + " ]"
}
