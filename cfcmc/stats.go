package cfcmc

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	mc "github.com/rmera/gomc"
	"gonum.org/v1/gonum/stat"
)

//Ladder is one step of a transfer, as seen by an Observer. The lambdas are the
//ones the molecule is left with after the step.
type Ladder struct {
	Mol          int
	Kind         int
	Source       int
	Dest         int
	Old          int
	New          int
	LambdaSource float64
	LambdaDest   float64
	Accepted     bool
}

//Observer receives every ladder step of every transfer.
type Observer func(l Ladder)

//Metrics are the Prometheus collectors updated by the move.
type Metrics struct {
	Transfers *prometheus.CounterVec
	Steps     *prometheus.CounterVec
	Relax     *prometheus.CounterVec
	Nu        *prometheus.GaugeVec
}

//NewMetrics creates the collectors and registers them with reg.
//A nil reg creates them without registering them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transfers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gomc_cfcmc_transfers_total",
			Help: "Transfer attempts by kind, destination box and result",
		}, []string{"kind", "box", "result"}),
		Steps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gomc_cfcmc_ladder_steps_total",
			Help: "Coupling ladder steps by result",
		}, []string{"result"}),
		Relax: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gomc_cfcmc_relax_trials_total",
			Help: "Relaxation trials by box and result",
		}, []string{"box", "result"}),
		Nu: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gomc_cfcmc_bias_nu",
			Help: "Current Wang-Landau increment by kind",
		}, []string{"kind"}),
	}
}

func result(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}

//Stats counts the transfers and ladder steps of a move.
type Stats struct {
	Trials        [][]uint64 //[kind][destination box]
	Accepted      [][]uint64
	Steps         uint64
	StepsAccepted uint64
	Relaxations   []uint64 //per box
	RelaxAccepted []uint64
	Metrics       *Metrics //can be nil
}

//NewStats returns zeroed statistics.
func NewStats(nkind, nbox int) *Stats {
	S := &Stats{
		Trials:        make([][]uint64, nkind),
		Accepted:      make([][]uint64, nkind),
		Relaxations:   make([]uint64, nbox),
		RelaxAccepted: make([]uint64, nbox),
	}
	for k := range S.Trials {
		S.Trials[k] = make([]uint64, nbox)
		S.Accepted[k] = make([]uint64, nbox)
	}
	return S
}

//Transfer records the outcome of a whole transfer of kind into box dst.
func (S *Stats) Transfer(kind, dst int, accepted bool) {
	S.Trials[kind][dst]++
	if accepted {
		S.Accepted[kind][dst]++
	}
	if S.Metrics != nil {
		S.Metrics.Transfers.WithLabelValues(strconv.Itoa(kind), strconv.Itoa(dst), result(accepted)).Inc()
	}
}

//Step records a ladder step.
func (S *Stats) Step(accepted bool) {
	S.Steps++
	if accepted {
		S.StepsAccepted++
	}
	if S.Metrics != nil {
		S.Metrics.Steps.WithLabelValues(result(accepted)).Inc()
	}
}

//Relaxed records a relaxation trial in box.
func (S *Stats) Relaxed(box int, accepted bool) {
	S.Relaxations[box]++
	if accepted {
		S.RelaxAccepted[box]++
	}
	if S.Metrics != nil {
		S.Metrics.Relax.WithLabelValues(strconv.Itoa(box), result(accepted)).Inc()
	}
}

//SetNu exports the bias increments.
func (S *Stats) SetNu(nu []float64) {
	if S.Metrics == nil {
		return
	}
	for k, v := range nu {
		S.Metrics.Nu.WithLabelValues(strconv.Itoa(k)).Set(v)
	}
}

//Rate returns the percentage of accepted transfers of kind into dst.
func (S *Stats) Rate(kind, dst int) float64 {
	if S.Trials[kind][dst] == 0 {
		return 0
	}
	return 100 * float64(S.Accepted[kind][dst]) / float64(S.Trials[kind][dst])
}

//Report writes the acceptance of each kind and, if bias is not nil, its visit
//histograms and offsets.
func (S *Stats) Report(w io.Writer, sys *mc.System, bias *Bias) error {
	pr := func(format string, a ...any) error {
		_, err := fmt.Fprintf(w, format, a...)
		return err
	}
	if err := pr("Ladder steps: %d, accepted %d\n", S.Steps, S.StepsAccepted); err != nil {
		return err
	}
	for b := range S.Relaxations {
		if err := pr("Relaxation in box %d: %d trials, %d accepted\n", b, S.Relaxations[b], S.RelaxAccepted[b]); err != nil {
			return err
		}
	}
	for k, K := range sys.Kinds {
		if !K.Transferable {
			continue
		}
		if err := pr("Kind %s\n", K.Name); err != nil {
			return err
		}
		for b := range sys.Boxes {
			if err := pr("  into box %d: %d trials, %.2f%% accepted, %d molecules\n", b, S.Trials[k][b], S.Rate(k, b), sys.Mols.Count(k, b)); err != nil {
				return err
			}
			if bias == nil || !bias.biased(b) {
				continue
			}
			h := bias.Visits.View(b, k).View()
			mean, sd := stat.MeanStdDev(h, nil)
			if err := pr("    visits %v (mean %.1f sd %.1f)\n    bias   %.4f\n", h, mean, sd, bias.Values[b][k]); err != nil {
				return err
			}
		}
		if bias != nil {
			if err := pr("  nu %g\n", bias.Nu[k]); err != nil {
				return err
			}
		}
	}
	return nil
}
