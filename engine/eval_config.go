package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var ErrUnknownOption = errors.New("unknown option")
var ErrBadOptionValue = errors.New("bad option value")

type ConfigParamKindT int

const (
	SpinParam ConfigParamKindT = iota
	CheckParam
	ComboParam
	StringParam
)

func (k ConfigParamKindT) String() string {
	switch k {
	case SpinParam:
		return "spin"
	case CheckParam:
		return "check"
	case ComboParam:
		return "combo"
	}
	return "string"
}

// A tunable exposed through the control protocol
type ConfigParam struct {
	Name    string
	Kind    ConfigParamKindT
	Min     int
	Max     int
	Vars    []string
	Default string
	Get     func() string
	Set     func(val string) error
}

type ConfigParamsT struct {
	params []ConfigParam
}

func (cp *ConfigParamsT) Params() []ConfigParam {
	return cp.params
}

func (cp *ConfigParamsT) register(param ConfigParam) {
	param.Default = param.Get()
	cp.params = append(cp.params, param)
}

func (cp *ConfigParamsT) RegisterInt(name string, param *int, min int, max int) {
	cp.RegisterIntFunc(name, min, max, func() int { return *param }, func(val int) error {
		*param = val
		return nil
	})
}

func (cp *ConfigParamsT) RegisterIntFunc(name string, min int, max int, get func() int, set func(val int) error) {
	cp.register(ConfigParam{
		Name: name,
		Kind: SpinParam,
		Min:  min,
		Max:  max,
		Get:  func() string { return strconv.Itoa(get()) },
		Set: func(val string) error {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%s: %w", name, ErrBadOptionValue)
			}
			if n < min || n > max {
				return fmt.Errorf("%s: %d not in [%d, %d]: %w", name, n, min, max, ErrBadOptionValue)
			}
			return set(n)
		}})
}

func (cp *ConfigParamsT) RegisterBool(name string, param *bool) {
	cp.register(ConfigParam{
		Name: name,
		Kind: CheckParam,
		Get:  func() string { return strconv.FormatBool(*param) },
		Set: func(val string) error {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("%s: %w", name, ErrBadOptionValue)
			}
			*param = b
			return nil
		}})
}

func (cp *ConfigParamsT) RegisterCombo(name string, vars []string, get func() string, set func(val string) error) {
	cp.register(ConfigParam{Name: name, Kind: ComboParam, Vars: vars, Get: get, Set: set})
}

func (cp *ConfigParamsT) RegisterString(name string, get func() string, set func(val string) error) {
	cp.register(ConfigParam{Name: name, Kind: StringParam, Get: get, Set: set})
}

func (cp *ConfigParamsT) Find(name string) (*ConfigParam, bool) {
	for i := range cp.params {
		if strings.EqualFold(cp.params[i].Name, name) {
			return &cp.params[i], true
		}
	}
	return nil, false
}

func (cp *ConfigParamsT) Set(name string, val string) error {
	param, ok := cp.Find(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownOption)
	}
	return param.Set(val)
}

// UCIOption renders the "option ..." line announced in reply to "uci".
func (p *ConfigParam) UCIOption() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "option name %s type %s default %s", p.Name, p.Kind, p.Default)
	switch p.Kind {
	case SpinParam:
		fmt.Fprintf(&sb, " min %d max %d", p.Min, p.Max)
	case ComboParam:
		sb.WriteString(strings.Join(lo.Map(p.Vars, func(v string, _ int) string { return " var " + v }), ""))
	}
	return sb.String()
}

// Options exposes the searcher's settings and the package-level search tunables.
func (s *Searcher) Options() *ConfigParamsT {
	cp := &ConfigParamsT{}

	cp.RegisterIntFunc("Hash", 1, 65536, s.HashMB, s.SetHash)
	cp.RegisterIntFunc("Threads", 1, 256, s.Threads, func(val int) error {
		s.SetThreads(val)
		return nil
	})
	cp.RegisterCombo("SearchAlgorithm", []string{AlphaBetaSearch.String(), MonteCarloSearch.String()},
		func() string { return s.Algorithm().String() },
		func(val string) error {
			algorithm, ok := ParseSearchAlgorithm(val)
			if !ok {
				return fmt.Errorf("SearchAlgorithm %q: %w", val, ErrBadOptionValue)
			}
			s.SetAlgorithm(algorithm)
			return nil
		})
	cp.RegisterCombo("Evaluator", []string{"Material", "PawnStructure"}, s.EvaluatorName, s.SetEvaluatorName)
	// Hundredths, since UCI spins are integers
	cp.RegisterIntFunc("Temperature", 1, 1000,
		func() int { return int(s.Temperature()*100 + 0.5) },
		func(val int) error { return s.SetTemperature(float64(val) / 100) })

	cp.RegisterInt("AspirationWindow", &AspirationWindow, 1, 1000)
	cp.RegisterInt("NullMoveReduction", &NullMoveReduction, 1, 6)
	cp.RegisterBool("UseNullMove", &HeurUseNullMove)
	cp.RegisterBool("UseTT", &UseTT)
	cp.RegisterBool("UseKillerMoves", &UseKillerMoves)
	cp.RegisterInt("EvalEngineDepth", &UCIEvalDepth, 1, 40)

	return cp
}
