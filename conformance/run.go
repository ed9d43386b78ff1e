package conformance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fiatjaf/nspvtest/common"
	"github.com/fiatjaf/nspvtest/nspv"
	"github.com/rs/zerolog"
)

type Status string

const (
	PASSED  Status = "passed"
	FAILED  Status = "failed"
	ABORTED Status = "aborted"
	SKIPPED Status = "skipped"
)

// AbortError stops the whole run: there's no point in going on, but it isn't
// a verdict on the node either.
type AbortError struct {
	Reason string
	Err    error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *AbortError) Unwrap() error { return e.Err }

func abort(reason string, err error) error {
	return &AbortError{Reason: reason, Err: err}
}

// HeightSource is a full node we can ask for its block count.
type HeightSource interface {
	GetBlockCount() (int64, error)
}

type Options struct {
	Chain       common.Chain
	Wallet      string
	Destination string

	SpendAmount     float64
	MinBalance      float64
	MaxFee          float64
	BalanceAttempts int
	BalanceDelay    time.Duration
	SessionExpiry   time.Duration

	FullNode HeightSource // optional

	// Only runs these scenarios, by name. Empty means all of them.
	Only []string
}

func OptionsFromConfig(config *common.Config) (Options, error) {
	chain, err := common.LookupChain(config.Chain)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Chain:           chain,
		Wallet:          config.Wallet,
		Destination:     config.Destination,
		SpendAmount:     config.SpendAmount,
		MinBalance:      config.MinBalance,
		MaxFee:          config.MaxFee,
		BalanceAttempts: config.BalanceAttempts,
		BalanceDelay:    config.BalanceDelay,
		SessionExpiry:   config.SessionExpiry,
	}, nil
}

// Run holds everything scenarios share: the client, the fixture and the
// options. It is built once and handed to every scenario.
type Run struct {
	client *nspv.Client
	opts   Options
	log    zerolog.Logger
}

func New(client *nspv.Client, opts Options, log zerolog.Logger) *Run {
	return &Run{
		client: client,
		opts:   opts,
		log:    log.With().Str("chain", opts.Chain.Name).Logger(),
	}
}

type Result struct {
	Name     string
	Status   Status
	Err      error
	Duration time.Duration
}

type Report struct {
	Chain     string
	StartedAt time.Time
	Results   []Result
}

func (rep Report) count(status Status) int {
	n := 0
	for _, res := range rep.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

func (rep Report) Passed() bool {
	return rep.count(FAILED) == 0 && rep.count(ABORTED) == 0
}

func (rep Report) Aborted() bool {
	return rep.count(ABORTED) > 0
}

// ExitCode is 0 if everything passed, 2 if the run was aborted, 1 otherwise.
func (rep Report) ExitCode() int {
	switch {
	case rep.Aborted():
		return 2
	case !rep.Passed():
		return 1
	}
	return 0
}

func (rep Report) Summary() string {
	return fmt.Sprintf("%d passed, %d failed, %d aborted, %d skipped",
		rep.count(PASSED), rep.count(FAILED), rep.count(ABORTED), rep.count(SKIPPED))
}

func (rep Report) Record() common.RunRecord {
	record := common.RunRecord{
		Chain:     rep.Chain,
		StartedAt: common.HistoryTime(rep.StartedAt),
	}
	for _, res := range rep.Results {
		sr := common.ScenarioRecord{
			Name:   res.Name,
			Status: string(res.Status),
			Millis: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		}
		record.Results = append(record.Results, sr)
	}
	return record
}

func (r *Run) selected() ([]Scenario, error) {
	if len(r.opts.Only) == 0 {
		return SCENARIOS, nil
	}

	wanted := make(map[string]bool, len(r.opts.Only))
	for _, name := range r.opts.Only {
		wanted[strings.TrimSpace(name)] = true
	}
	var scenarios []Scenario
	for _, s := range SCENARIOS {
		if wanted[s.Name] {
			scenarios = append(scenarios, s)
			delete(wanted, s.Name)
		}
	}
	for name := range wanted {
		return nil, fmt.Errorf("no scenario named %q", name)
	}
	return scenarios, nil
}

// Execute runs the scenarios in order. After an abort everything left is
// skipped.
func (r *Run) Execute() (Report, error) {
	rep := Report{Chain: r.opts.Chain.Name, StartedAt: time.Now()}

	scenarios, err := r.selected()
	if err != nil {
		return rep, err
	}

	var aborted bool
	for _, s := range scenarios {
		if aborted {
			rep.Results = append(rep.Results, Result{Name: s.Name, Status: SKIPPED})
			continue
		}

		log := r.log.With().Str("scenario", s.Name).Logger()
		log.Info().Msg(s.Description)

		start := time.Now()
		err := s.Check(r)
		res := Result{Name: s.Name, Err: err, Duration: time.Since(start), Status: PASSED}

		var abortErr *AbortError
		var decodeErr *nspv.DecodeError
		switch {
		case err == nil:
			log.Info().Dur("took", res.Duration).Msg("passed")
		case errors.As(err, &abortErr):
			res.Status = ABORTED
			aborted = true
			log.Error().Err(err).Msg("aborting run")
		case errors.Is(err, nspv.ErrTransport):
			// the node is gone or hung, nothing after this can be trusted
			res.Status = ABORTED
			res.Err = abort("lost the node", err)
			aborted = true
			log.Error().Err(err).Msg("aborting run")
		case errors.As(err, &decodeErr):
			res.Status = ABORTED
			res.Err = abort("can't make sense of the node", err)
			aborted = true
			log.Error().Err(err).Msg("aborting run")
		default:
			res.Status = FAILED
			log.Error().Err(err).Msg("failed")
		}
		rep.Results = append(rep.Results, res)
	}

	return rep, nil
}
