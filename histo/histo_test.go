package histo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
)

func TestHistoIO(Te *testing.T) {
	M := NewMatrix(3, 3, []float64{0, 1, 2, 3, 4, 8})
	M.Fill()
	rawdata := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}
	M.NewHisto(0, 1, nil, rawdata)
	v := M.View(0, 1)
	fmt.Println(v.String())
	if v.Total() != 26 {
		Te.Errorf("expected 26 points within range, got %d", v.Total())
	}
	j, err := json.Marshal(M)
	if err != nil {
		Te.Fatal(err)
	}
	M2 := new(Matrix)
	if err := json.Unmarshal(j, M2); err != nil {
		Te.Fatal(err)
	}
	if M2.View(0, 1).Sum() != v.Sum() || M2.View(2, 2).ID() != 8 {
		Te.Errorf("round trip changed the matrix: %v", M2)
	}
}

func TestVisits(Te *testing.T) {
	M := NewMatrix(2, 1, Ladder(10))
	M.Fill()
	for i := 0; i <= 10; i++ {
		M.AddData(1, 0, float64(i), float64(i))
	}
	M.AddData(1, 0, 10)
	D := M.View(1, 0)
	if len(D.View()) != 11 {
		Te.Fatalf("expected 11 bins, got %d", len(D.View()))
	}
	if D.Max() != 3 || D.Min() != 2 || M.Total(1, 0) != 23 {
		Te.Errorf("wrong counts: %v", D)
	}
	M.Reset(1, 0)
	if D.Max() != 0 || D.Total() != 0 {
		Te.Errorf("reset did not zero the histogram: %v", D)
	}
	if M.Total(0, 0) != 0 {
		Te.Errorf("the other histogram changed")
	}
	//values on a divider go to the bin above it
	E := NewData([]float64{0, 1, 2}, nil)
	E.AddData(1, -1, 2)
	if E.View()[1] != 1 || E.View()[0] != 0 || E.Total() != 3 {
		Te.Errorf("wrong binning: %v", E)
	}
}

func TestCompressed(Te *testing.T) {
	M := NewMatrix(2, 2, Ladder(4))
	M.Fill()
	M.AddData(0, 1, 0, 1, 1, 4)
	snap := struct {
		Visits *Matrix       `json:"visits"`
		Bias   [][][]float64 `json:"bias"`
	}{M, [][][]float64{{{0, -0.1}}}}
	var buf bytes.Buffer
	if err := WriteCompressed(&buf, snap); err != nil {
		Te.Fatal(err)
	}
	var back struct {
		Visits *Matrix       `json:"visits"`
		Bias   [][][]float64 `json:"bias"`
	}
	if err := ReadCompressed(&buf, &back); err != nil {
		Te.Fatal(err)
	}
	if back.Visits.View(0, 1).View()[1] != 2 || back.Bias[0][0][1] != -0.1 {
		Te.Errorf("snapshot changed: %v %v", back.Visits, back.Bias)
	}
}
