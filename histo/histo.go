//Package histo keeps histograms of visits, alone or as matrices of histograms that
//share their dividers, and writes and reads them as compressed JSON snapshots.
package histo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Matrix is a matrix of histograms, stored row-major.
type Matrix struct {
	rows, cols int
	d          []*Data
	dividers   []float64 //if not nil, all histograms have the same dividers
}

//NewMatrix returns a new matrix of *Data with r rows and c columns,
//and the given dividers. Dividers can be nil, in which case, elements
//of the matrix will not be forced to have the same dividers.
func NewMatrix(r, c int, dividers []float64) *Matrix {
	ret := new(Matrix)
	ret.rows = r
	ret.cols = c
	ret.d = make([]*Data, r*c)
	ret.dividers = dividers
	return ret
}

//Ladder returns the dividers for integer indexes 0..n, one bin per index.
func Ladder(n int) []float64 {
	d := make([]float64, n+2)
	floats.Span(d, -0.5, float64(n)+0.5)
	return d
}

func (M *Matrix) Dims() (int, int) {
	return M.rows, M.cols
}

func (M *Matrix) String() string {
	ret := fmt.Sprintf("rows:%d cols:%d | Data:\n", M.rows, M.cols)
	t := make([]string, 0, len(M.d))
	for _, v := range M.d {
		t = append(t, v.String())
	}
	return ret + strings.Join(t, "\n\n")
}

type jsonMatrix struct {
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	D        []*Data   `json:"data"`
	Dividers []float64 `json:"dividers"`
}

func (M *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMatrix{Rows: M.rows, Cols: M.cols, D: M.d, Dividers: M.dividers})
}

func (M *Matrix) UnmarshalJSON(b []byte) error {
	var a jsonMatrix
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.D) != a.Rows*a.Cols {
		return fmt.Errorf("goMC/histo: %d histograms for a %dx%d matrix", len(a.D), a.Rows, a.Cols)
	}
	M.rows = a.Rows
	M.cols = a.Cols
	M.d = a.D
	M.dividers = a.Dividers
	return nil
}

//returns the index in the []*Data slice of a matrix given
//the row and column indexes.
func (M *Matrix) rc2i(r, c int) int {
	M.Check(r, c, true)
	return M.cols*r + c
}

//Fill fills the matrix with empty histograms, using the dividers of the matrix.
//Each histogram gets its linear index in the matrix as ID.
func (M *Matrix) Fill() {
	for i := 0; i < M.rows; i++ {
		for j := 0; j < M.cols; j++ {
			M.NewHisto(i, j, M.dividers, nil, M.cols*i+j)
		}
	}
}

//Check checks if the given row and column indexes are within range.
//if pan is given and true, it panics if either is out of range,
//otherwise, it returns an error.
func (M *Matrix) Check(r, c int, pan ...bool) error {
	var err error
	if r < 0 || r >= M.rows {
		err = fmt.Errorf("goMC/histo: Row %d out of range", r)
	}
	if c < 0 || c >= M.cols {
		err = fmt.Errorf("goMC/histo: Column %d out of range", c)
	}
	if err != nil && len(pan) > 0 && pan[0] {
		panic(err.Error())
	}
	return err
}

//NewHisto puts a new histogram in the r,c position in the matrix. Dividers can be nil, in which case
//the matrix's are used. If the matrix has dividers and they don't match the ones given, the matrix's
//are used, and a warning is logged. rawdata can also be nil, in which case, an empty histogram is created.
func (M *Matrix) NewHisto(r, c int, dividers []float64, rawdata []float64, ID ...int) {
	if dividers == nil {
		if M.dividers == nil {
			panic("goMC/histo.Matrix.NewHisto: dividers not given, and the matrix has none")
		}
		dividers = M.dividers
	} else if M.dividers != nil && !floats.Equal(M.dividers, dividers) {
		slog.Warn("histo: dividers don't match the matrix's, using the matrix's", "row", r, "col", c)
		dividers = M.dividers
	}
	M.d[M.rc2i(r, c)] = NewData(dividers, rawdata, ID...)
}

//View returns the histogram in the r,c position in the matrix. It is not a copy.
func (M *Matrix) View(r, c int) *Data {
	return M.d[M.rc2i(r, c)]
}

//AddData adds one or more data points to the histogram in the r,c position.
func (M *Matrix) AddData(r, c int, point ...float64) {
	M.d[M.rc2i(r, c)].AddData(point...)
}

//Total returns the number of points added to the histogram in r,c since its last reset.
func (M *Matrix) Total(r, c int) int {
	return M.d[M.rc2i(r, c)].Total()
}

//Reset zeroes the histogram in the r,c position.
func (M *Matrix) Reset(r, c int) {
	M.d[M.rc2i(r, c)].Reset()
}

//Data is a histogram.
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{ID: D.id, Normalized: D.normalized, Total: D.total, Dividers: D.dividers, Histo: D.histo})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Histo) != len(a.Dividers)-1 {
		return fmt.Errorf("goMC/histo: %d bins for %d dividers", len(a.Histo), len(a.Dividers))
	}
	D.id = a.ID
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

//ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

//String prints a -hopefully- pretty string representation of
//the histogram, in 3 lines of text.
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalData: %d\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

//NewData returns a new histogram from the dividers and rawdata given.
//rawdata can be nil. In that case, an empty histogram is created.
//if an ID for the histogram is given, it will be set. If not, the ID will
//be set to -1.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	d := new(Data)
	d.dividers = make([]float64, len(dividers))
	copy(d.dividers, dividers)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(d.dividers, rawdata)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

//bin returns the bin of v, or -1 if v is out of the histogram's range.
func (D *Data) bin(v float64) int {
	n := len(D.dividers)
	if n < 2 || v < D.dividers[0] || v >= D.dividers[n-1] {
		return -1
	}
	return sort.Search(n, func(i int) bool { return D.dividers[i] > v }) - 1
}

//AddData adds the given data point(s) to the histogram. Points out of range are not
//counted in any bin, but they do count for the total.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	for _, v := range point {
		if j := D.bin(v); j >= 0 {
			D.histo[j]++
		}
	}
	D.total += len(point)
	if norma {
		D.Normalize()
	}
}

//Total returns the number of points added since the last reset.
func (D *Data) Total() int {
	return D.total
}

//Reset sets every bin, and the total, to zero.
func (D *Data) Reset() {
	for i := range D.histo {
		D.histo[i] = 0
	}
	D.total = 0
	D.normalized = false
}

//Max returns the value of the fullest bin.
func (D *Data) Max() float64 {
	return floats.Max(D.histo)
}

//Min returns the value of the emptiest bin.
func (D *Data) Min() float64 {
	return floats.Min(D.histo)
}

//Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize normalizes the histogram
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize un-normalizes the histogram
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	D.normalized = false
	if normalize {
		n = 1 / float64(D.total)
		D.normalized = true
	}
	floats.Scale(n, D.histo)
}

//Copy returns a copy of the bins. If dest is given and large enough, it is used.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	copy(d, D.histo)
	return d
}

//View returns the bins themselves.
func (D *Data) View() []float64 {
	return D.histo
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

//ReHisto replaces the contents of the histogram with the histogram of rawdata.
//rawdata is sorted in place.
func (D *Data) ReHisto(dividers, rawdata []float64) {
	sort.Float64s(rawdata)
	//stat.Histogram panics instead of omitting the values that are off limits
	//so we remove them here before the call.
	maxi := sort.SearchFloat64s(rawdata, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(rawdata, dividers[0])
	rawdata = rawdata[mini:maxi]
	D.total = len(rawdata)
	D.histo = stat.Histogram(nil, dividers, rawdata, nil)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}
