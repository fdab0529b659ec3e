package viewset

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-views/internal/filter"
	"github.com/ironsheep/image-views/internal/kernel"
	"github.com/ironsheep/image-views/internal/raster"
)

var (
	// ErrUnknownView is returned for a view name that is not in the set.
	ErrUnknownView = errors.New("unknown view")

	// ErrInvalidParameter is returned for parameters outside their domain.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotLoaded is returned by operations that need a loaded source.
	ErrNotLoaded = errors.New("no image loaded")
)

// DefaultReduceColors is the palette size of the Reduce view after Load.
const DefaultReduceColors = 255

// EventKind describes what changed in a Set.
type EventKind int

const (
	// CurrentChanged is sent when a different view (or a new set) is on display.
	CurrentChanged EventKind = iota

	// ViewRecomputed is sent when a single entry was replaced.
	ViewRecomputed

	// Cleared is sent when every view was dropped.
	Cleared
)

func (k EventKind) String() string {
	switch k {
	case CurrentChanged:
		return "current_changed"
	case ViewRecomputed:
		return "view_recomputed"
	case Cleared:
		return "cleared"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is passed to the Notifier. View is unset for Cleared.
type Event struct {
	Kind EventKind
	View Name
}

// Notifier receives change events from a Set.
type Notifier func(Event)

// Options configures a Set.
type Options struct {
	// Level selects the optional views computed by Load.
	Level FeatureLevel

	// DefaultView is selected after every successful Load. It must be
	// included in Level.
	DefaultView Name

	// Threshold is the highlight edge attenuation used by Load.
	Threshold float64

	// ReduceColors is the palette size of the Reduce view used by Load.
	ReduceColors int

	// ClampMode selects the highlight clamping behavior.
	ClampMode kernel.ClampMode

	// Parallel runs the filters of Load concurrently.
	Parallel bool

	// Logger receives debug output. Defaults to the logrus standard logger.
	Logger log.FieldLogger
}

// DefaultOptions returns the full gallery, opening on the edge view.
func DefaultOptions() Options {
	return Options{
		Level:        LevelFull,
		DefaultView:  Edges,
		Threshold:    kernel.DefaultThreshold,
		ReduceColors: DefaultReduceColors,
		ClampMode:    kernel.ClampIndependent,
	}
}

// Validate checks that the options describe a usable Set.
func (o Options) Validate() error {
	if _, ok := levelStrings[o.Level]; !ok {
		return fmt.Errorf("%w: feature level %d", ErrInvalidParameter, int(o.Level))
	}
	if !o.Level.Includes(o.DefaultView) {
		return fmt.Errorf("%w: default view %s is not computed at level %s",
			ErrUnknownView, o.DefaultView, o.Level)
	}
	if o.ReduceColors < 1 {
		return fmt.Errorf("%w: reduce colors %d < 1", ErrInvalidParameter, o.ReduceColors)
	}
	return nil
}

// Set is the collection of derived views for the loaded source image.
type Set struct {
	opts   Options
	lib    filter.Library
	notify Notifier
	log    log.FieldLogger

	views     map[Name]*raster.Image
	selector  Selector
	threshold float64
	colors    int
}

// New creates an empty Set. notify may be nil.
func New(opts Options, lib filter.Library, notify Notifier) (*Set, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if lib == nil {
		return nil, errors.New("viewset: nil filter library")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Set{
		opts:      opts,
		lib:       lib,
		notify:    notify,
		log:       logger,
		threshold: opts.Threshold,
		colors:    opts.ReduceColors,
	}, nil
}

// Options returns the options the Set was created with.
func (s *Set) Options() Options {
	return s.opts
}

// Loaded reports whether the Set holds views.
func (s *Set) Loaded() bool {
	return s.views != nil
}

// Load replaces every view with those derived from src and selects the
// default view. src is copied; the caller keeps ownership of its argument.
//
// On error the previous views and selection are left untouched.
func (s *Set) Load(src *raster.Image) error {
	return s.load(src, s.opts.DefaultView)
}

// LoadView is Load followed by the selection of name, with a single
// CurrentChanged event for name. name must be computed at the configured
// level; otherwise nothing is loaded.
func (s *Set) LoadView(src *raster.Image, name Name) error {
	if !s.opts.Level.Includes(name) {
		return fmt.Errorf("load: %w: %s is not computed at level %s",
			ErrUnknownView, name, s.opts.Level)
	}
	return s.load(src, name)
}

func (s *Set) load(src *raster.Image, selected Name) error {
	if src == nil {
		return fmt.Errorf("load: %w: nil source", filter.ErrUnsupportedInput)
	}
	start := time.Now()

	views, err := s.compute(src.Copy())
	if err != nil {
		s.log.WithError(err).Debug("load failed, keeping previous views")
		return fmt.Errorf("load: %w", err)
	}

	s.release()
	s.views = views
	s.threshold = s.opts.Threshold
	s.colors = s.opts.ReduceColors
	s.selector.Select(selected)

	s.log.WithFields(log.Fields{
		"width":   src.Width(),
		"height":  src.Height(),
		"views":   len(views),
		"level":   s.opts.Level.String(),
		"current": selected.String(),
		"elapsed": time.Since(start).String(),
	}).Debug("loaded view set")

	s.emit(Event{Kind: CurrentChanged, View: selected})
	return nil
}

// SelectView makes name the current view. It never recomputes anything.
func (s *Set) SelectView(name Name) error {
	if _, ok := s.views[name]; !ok {
		return fmt.Errorf("select %s: %w", name, ErrUnknownView)
	}
	s.selector.Select(name)
	s.emit(Event{Kind: CurrentChanged, View: name})
	return nil
}

// ReconfigureHighlight recomputes the Highlight view with a new threshold.
// The threshold is not range checked.
func (s *Set) ReconfigureHighlight(threshold float64) error {
	if !s.Loaded() {
		return fmt.Errorf("reconfigure highlight: %w", ErrNotLoaded)
	}
	high, err := kernel.Highlight(s.views[Original], s.views[Edges], threshold, s.opts.ClampMode)
	if err != nil {
		return fmt.Errorf("reconfigure highlight: %w", err)
	}

	s.replace(Highlight, high)
	s.threshold = threshold
	s.log.WithFields(log.Fields{"view": Highlight.String(), "threshold": threshold}).Debug("recomputed view")
	s.emit(Event{Kind: ViewRecomputed, View: Highlight})
	return nil
}

// ReconfigureReduce recomputes the Reduce view with a new palette size.
// colors must be at least 1.
func (s *Set) ReconfigureReduce(colors int) error {
	if colors < 1 {
		return fmt.Errorf("reconfigure reduce: %w: color count %d < 1", ErrInvalidParameter, colors)
	}
	if !s.Loaded() {
		return fmt.Errorf("reconfigure reduce: %w", ErrNotLoaded)
	}
	if _, ok := s.views[Reduce]; !ok {
		return fmt.Errorf("reconfigure reduce: %w: %s not computed at level %s",
			ErrUnknownView, Reduce, s.opts.Level)
	}

	orig := s.views[Original]
	reduced, err := s.lib.ReduceColors(orig, colors)
	if err != nil {
		return fmt.Errorf("reconfigure reduce: %w", err)
	}
	if err := orig.SameSize(reduced); err != nil {
		return fmt.Errorf("reconfigure reduce: %w", err)
	}

	s.replace(Reduce, reduced)
	s.colors = colors
	s.log.WithFields(log.Fields{"view": Reduce.String(), "colors": colors}).Debug("recomputed view")
	s.emit(Event{Kind: ViewRecomputed, View: Reduce})
	return nil
}

// Unload drops every view, including the source copy, and clears the selection.
func (s *Set) Unload() {
	wasLoaded := s.Loaded()
	s.release()
	s.selector.Reset()
	s.threshold = s.opts.Threshold
	s.colors = s.opts.ReduceColors
	if wasLoaded {
		s.log.Debug("unloaded view set")
		s.emit(Event{Kind: Cleared})
	}
}

// Current returns the current view. ok is false when nothing is loaded.
func (s *Set) Current() (name Name, img *raster.Image, ok bool) {
	name, ok = s.selector.Current()
	if !ok {
		return 0, nil, false
	}
	return name, s.views[name], true
}

// View returns the named view.
func (s *Set) View(name Name) (*raster.Image, error) {
	img, ok := s.views[name]
	if !ok {
		return nil, fmt.Errorf("view %s: %w", name, ErrUnknownView)
	}
	return img, nil
}

// Names returns the views present in display order. Empty when unloaded.
func (s *Set) Names() []Name {
	names := make([]Name, 0, len(s.views))
	for _, n := range AllNames() {
		if _, ok := s.views[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Size returns the width and height shared by every view.
func (s *Set) Size() (width, height int) {
	if orig, ok := s.views[Original]; ok {
		return orig.Width(), orig.Height()
	}
	return 0, 0
}

// Threshold returns the threshold the Highlight view was computed with.
func (s *Set) Threshold() float64 {
	return s.threshold
}

// ReduceColors returns the palette size the Reduce view was computed with.
func (s *Set) ReduceColors() int {
	return s.colors
}

// replace swaps in a recomputed entry. The previous image is no longer
// referenced by the Set.
func (s *Set) replace(name Name, img *raster.Image) {
	s.views[name] = img
}

// release drops every owned image.
func (s *Set) release() {
	for n := range s.views {
		s.views[n] = nil
	}
	s.views = nil
}

func (s *Set) emit(ev Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}

// step computes one library-backed view from the source.
type step struct {
	name Name
	run  func(*raster.Image) (*raster.Image, error)
}

// steps lists the library calls for the configured level. Highlight is not
// among them since it depends on Edges.
func (s *Set) steps() []step {
	all := map[Name]func(*raster.Image) (*raster.Image, error){
		Edges: s.lib.Edges,
		Pixelate: func(img *raster.Image) (*raster.Image, error) {
			return kernel.Pixelate(img), nil
		},
		Grey:   s.lib.Grey,
		Gauss:  s.lib.Gauss,
		Median: s.lib.Median,
		Reduce: func(img *raster.Image) (*raster.Image, error) {
			return s.lib.ReduceColors(img, s.opts.ReduceColors)
		},
		Otsu:    s.lib.Otsu,
		Ohbuchi: s.lib.Ohbuchi,
	}

	var out []step
	for _, n := range s.opts.Level.Views() {
		if fn, ok := all[n]; ok {
			out = append(out, step{name: n, run: fn})
		}
	}
	return out
}

// compute builds a complete view map for src without touching the Set.
func (s *Set) compute(src *raster.Image) (map[Name]*raster.Image, error) {
	steps := s.steps()
	results := make([]*raster.Image, len(steps))

	runStep := func(i int) error {
		img, err := steps[i].run(src)
		if err != nil {
			return fmt.Errorf("%s: %w", steps[i].name, err)
		}
		if err := src.SameSize(img); err != nil {
			return fmt.Errorf("%s: %w", steps[i].name, err)
		}
		results[i] = img
		return nil
	}

	if s.opts.Parallel {
		var g errgroup.Group
		for i := range steps {
			i := i
			g.Go(func() error { return runStep(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range steps {
			if err := runStep(i); err != nil {
				return nil, err
			}
		}
	}

	views := make(map[Name]*raster.Image, len(steps)+2)
	views[Original] = src
	for i, st := range steps {
		views[st.name] = results[i]
	}

	high, err := kernel.Highlight(src, views[Edges], s.opts.Threshold, s.opts.ClampMode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Highlight, err)
	}
	views[Highlight] = high
	return views, nil
}
