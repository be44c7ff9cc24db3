package cfcmc

import (
	"io"
	"log/slog"
	"math"

	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/histo"
)

//Bias is the Wang-Landau bias over the coupling ladder, one histogram of
//visits and one row of offsets per box and kind. Bin i of a box is the
//molecule being coupled i/Window to it.
type Bias struct {
	Visits *histo.Matrix `json:"visits"`
	Values [][][]float64 `json:"values"` //[box][kind][bin]
	Nu     []float64     `json:"nu"`     //per kind
	Window int           `json:"window"`

	biased   func(box int) bool
	freq     int
	flatness float64
	tol      float64
	log      *slog.Logger
}

//NewBias returns a flat bias for the given numbers of boxes and kinds. Boxes for which
//biased returns false are never updated and contribute no factor.
func NewBias(nbox, nkind int, opts *Options, biased func(box int) bool, logger *slog.Logger) *Bias {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := opts.Window()
	B := &Bias{
		Visits:   histo.NewMatrix(nbox, nkind, histo.Ladder(w)),
		Values:   make([][][]float64, nbox),
		Nu:       make([]float64, nkind),
		Window:   w,
		biased:   biased,
		freq:     opts.HistFreq(),
		flatness: opts.Flatness(),
		tol:      opts.NuTol(),
		log:      logger,
	}
	B.Visits.Fill()
	for b := range B.Values {
		B.Values[b] = make([][]float64, nkind)
		for k := range B.Values[b] {
			B.Values[b][k] = make([]float64, w+1)
		}
	}
	for k := range B.Nu {
		B.Nu[k] = opts.Nu()
	}
	return B
}

//Frozen returns whether the bias of the kind no longer changes.
func (B *Bias) Frozen(kind int) bool {
	return B.Nu[kind] <= B.tol
}

//Visit records a visit of the kind to bin in box, and lowers the bias of the bin.
//Every freq visits, if the histogram is flat, nu is halved and the visits are reset.
//It returns true if that happened.
func (B *Bias) Visit(kind, box, bin int) bool {
	if !B.biased(box) || B.Frozen(kind) {
		return false
	}
	B.Visits.AddData(box, kind, float64(bin))
	B.Values[box][kind][bin] -= B.Nu[kind]
	h := B.Visits.View(box, kind)
	if h.Total()%B.freq != 0 {
		return false
	}
	if h.Min() < B.flatness*h.Max() {
		return false
	}
	B.Nu[kind] *= 0.5
	B.Visits.Reset(box, kind)
	B.log.Info("flat histogram", "kind", kind, "box", box, "nu", B.Nu[kind])
	return true
}

//Coefficient returns the bias factor of a ladder step of kind from index from to index to,
//where Window is full coupling to src.
func (B *Bias) Coefficient(kind, src, dst, from, to int) float64 {
	c := 0.0
	if B.biased(src) {
		c += B.Values[src][kind][to] - B.Values[src][kind][from]
	}
	if B.biased(dst) {
		c += B.Values[dst][kind][B.Window-to] - B.Values[dst][kind][B.Window-from]
	}
	return math.Exp(c)
}

//Save writes the bias as a compressed snapshot.
func (B *Bias) Save(w io.Writer) error {
	return histo.WriteCompressed(w, B)
}

//Load reads a snapshot written by Save into B, which must have the same shape.
func (B *Bias) Load(r io.Reader) error {
	n := &Bias{}
	if err := histo.ReadCompressed(r, n); err != nil {
		return mc.NewError(err.Error(), true, mc.ErrConfig, "Bias.Load")
	}
	if n.Visits == nil {
		return mc.NewError("Bias snapshot without visits", true, mc.ErrConfig, "Bias.Load")
	}
	rows, cols := B.Visits.Dims()
	if nr, nc := n.Visits.Dims(); nr != rows || nc != cols || n.Window != B.Window || len(n.Nu) != len(B.Nu) {
		return mc.NewError("Bias snapshot does not match the system", true, mc.ErrConfig, "Bias.Load")
	}
	B.Visits, B.Values, B.Nu = n.Visits, n.Values, n.Nu
	return nil
}
