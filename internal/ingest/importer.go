package ingest

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/hurttlocker/lineage/internal/metrics"
)

// Engine runs the text import pipeline.
type Engine struct {
	opts    Options
	logger  *zap.Logger
	newID   func() string
	marshal func(v any) ([]byte, error)
}

// NewEngine creates an Engine. A nil logger disables logging.
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	opts.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		opts:    opts,
		logger:  logger.Named("ingest"),
		newID:   newPersonID,
		marshal: json.Marshal,
	}
}

// Options returns the normalized options the engine runs with.
func (e *Engine) Options() Options { return e.opts }

// Build parses, merges and levels text into a Document.
func (e *Engine) Build(text string) (*Result, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	r := newRoster()
	skipped := 0
	for _, line := range lines {
		rec, ok := parseLine(line)
		if !ok {
			skipped++
			continue
		}
		r.add(rec)
	}
	if r.len() == 0 {
		return nil, ErrNoValidEntries
	}

	levels, report := solveLevels(r, e.opts.MaxRounds)
	if !report.RelaxConverged {
		e.logger.Warn("level relaxation hit round bound",
			zap.Int("max_rounds", e.opts.MaxRounds),
			zap.Int("people", r.len()))
	}
	if !report.SpouseConverged {
		e.logger.Warn("spouse sync hit round bound",
			zap.Int("max_rounds", e.opts.MaxRounds),
			zap.Int("people", r.len()))
	}

	res := &Result{
		Document:     buildDocument(r, levels, e.newID),
		LinesRead:    len(lines),
		LinesSkipped: skipped,
		Levels:       report,
	}
	e.logger.Debug("import built",
		zap.Int("lines", res.LinesRead),
		zap.Int("skipped", res.LinesSkipped),
		zap.Int("people", len(res.Document)),
		zap.Int("relax_rounds", report.RelaxRounds),
		zap.Int("spouse_rounds", report.SpouseRounds),
		zap.Int("defaulted", report.Defaulted),
		zap.Int("promoted", report.Promoted))
	return res, nil
}

// Import converts text into the serialized tree document. Either the full
// document or an error is returned, never both.
func (e *Engine) Import(text string) ([]byte, error) {
	_, data, err := e.Convert(text)
	return data, err
}

// Convert is Import that also returns the built Result.
func (e *Engine) Convert(text string) (*Result, []byte, error) {
	res, err := e.Build(text)
	if err != nil {
		metrics.ObserveImport(string(Kind(err)), 0)
		return nil, nil, err
	}
	metrics.ObservePass(metrics.PassRelax, res.Levels.RelaxRounds, res.Levels.RelaxConverged)
	metrics.ObservePass(metrics.PassSpouse, res.Levels.SpouseRounds, res.Levels.SpouseConverged)

	data, err := e.marshal(res.Document)
	if err != nil {
		err = serializationError(err)
		e.logger.Error("encoding document", zap.Error(err))
		metrics.ObserveImport(string(KindSerializationFailure), 0)
		return nil, nil, err
	}
	metrics.ObserveImport("ok", len(res.Document))
	return res, data, nil
}
