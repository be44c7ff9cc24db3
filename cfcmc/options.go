package cfcmc

//Options for the transfer move. The getters also set a new value, if one is given.
type Options struct {
	window     int
	relaxSteps int
	histFreq   int
	flatness   float64
	nu         float64
	nuTol      float64
	maxDisp    float64
	maxRot     float64
}

//DefaultOptions returns a 10-window ladder with 10 relaxation trials per box and step,
//and the usual Wang-Landau settings.
func DefaultOptions() *Options {
	return &Options{
		window:     10,
		relaxSteps: 10,
		histFreq:   1000,
		flatness:   0.95,
		nu:         0.01,
		nuTol:      1e-6,
		maxDisp:    0.5,
		maxRot:     0.3,
	}
}

//Window is the number of steps between full coupling in one box and in the other.
func (O *Options) Window(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.window = n[0]
	}
	return O.window
}

//RelaxSteps is the number of relaxation trials run in each box after every ladder step.
func (O *Options) RelaxSteps(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.relaxSteps = n[0]
	}
	return O.relaxSteps
}

//HistFreq is the number of visits between flatness checks of a histogram.
func (O *Options) HistFreq(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.histFreq = n[0]
	}
	return O.histFreq
}

//Flatness is the fraction of the most visited bin that the least visited one
//must reach for the histogram to count as flat.
func (O *Options) Flatness(f ...float64) float64 {
	if len(f) > 0 && f[0] > 0 && f[0] <= 1 {
		O.flatness = f[0]
	}
	return O.flatness
}

//Nu is the initial bias increment.
func (O *Options) Nu(f ...float64) float64 {
	if len(f) > 0 && f[0] >= 0 {
		O.nu = f[0]
	}
	return O.nu
}

//NuTol is the increment below which the bias is frozen.
func (O *Options) NuTol(f ...float64) float64 {
	if len(f) > 0 && f[0] >= 0 {
		O.nuTol = f[0]
	}
	return O.nuTol
}

//MaxDisp is the largest displacement, in A, along each axis in a relaxation trial.
func (O *Options) MaxDisp(f ...float64) float64 {
	if len(f) > 0 && f[0] > 0 {
		O.maxDisp = f[0]
	}
	return O.maxDisp
}

//MaxRot is the largest rotation, in radians, in a relaxation trial.
func (O *Options) MaxRot(f ...float64) float64 {
	if len(f) > 0 && f[0] > 0 {
		O.maxRot = f[0]
	}
	return O.maxRot
}
