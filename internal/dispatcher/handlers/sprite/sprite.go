// Package sprite provides commands that spawn and despawn short-lived
// sprites in the world.
package sprite

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/dshills/ecscli/internal/dispatcher"
	"github.com/dshills/ecscli/internal/dispatcher/execctx"
	"github.com/dshills/ecscli/internal/world"
)

// Command names.
const (
	CmdSpawn   = "spawn"   // spawn [x y]
	CmdDespawn = "despawn" // remove every sprite
	CmdSprites = "sprites" // list sprites
)

// DefaultLifetime is how long a sprite lives when no lifetime is configured.
const DefaultLifetime = 5 * time.Second

// Sprite errors.
var (
	// ErrArgCount indicates spawn was not given exactly two coordinates.
	ErrArgCount = errors.New("sprite: spawn takes exactly 2 arguments")

	// ErrNotNumber indicates a coordinate could not be parsed.
	ErrNotNumber = errors.New("sprite: spawn arguments must be numbers")
)

// Sprite marks an entity as a sprite of the given size.
type Sprite struct {
	Size    float64
	Expires time.Time
}

// Position is an entity's location.
type Position struct {
	X, Y float64
}

// Bounds is the world resource describing the area random sprites land in.
type Bounds struct {
	Width, Height float64
}

// DefaultBounds is used when the world has no Bounds resource.
var DefaultBounds = Bounds{Width: 800, Height: 600}

// Handler implements the sprite commands.
type Handler struct {
	out      io.Writer
	lifetime time.Duration
	rng      *rand.Rand
	now      func() time.Time
}

// NewHandler creates the sprite commands. Sprites expire after lifetime.
func NewHandler(out io.Writer, lifetime time.Duration) *Handler {
	if out == nil {
		out = io.Discard
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	seed := uint64(time.Now().UnixNano())
	return &Handler{
		out:      out,
		lifetime: lifetime,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
		now:      time.Now,
	}
}

// SetClock replaces the handler's time source.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// Register registers the sprite commands on d.
func (h *Handler) Register(d *dispatcher.Dispatcher) {
	d.RegisterNoArgs(CmdSpawn, h.spawnRandom)
	d.RegisterArgs(CmdSpawn, h.spawnAt)
	d.RegisterNoArgs(CmdDespawn, h.despawnAll)
	d.RegisterNoArgs(CmdSprites, h.list)
}

func (h *Handler) spawnRandom(ctx *execctx.ExecutionContext) error {
	b := DefaultBounds
	if r, ok := world.Resource[Bounds](ctx.World); ok {
		b = *r
	}
	h.spawn(ctx, Position{
		X: h.rng.Float64() * b.Width,
		Y: h.rng.Float64() * b.Height,
	})
	return nil
}

func (h *Handler) spawnAt(ctx *execctx.ExecutionContext, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w, got %d", ErrArgCount, len(args))
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNotNumber, args[0])
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNotNumber, args[1])
	}
	h.spawn(ctx, Position{X: x, Y: y})
	return nil
}

func (h *Handler) spawn(ctx *execctx.ExecutionContext, pos Position) {
	expires := h.now().Add(h.lifetime)
	ctx.Commands().Spawn(func(w *world.World, e world.Entity) {
		world.Insert(w, e, Sprite{Size: 64, Expires: expires})
		world.Insert(w, e, pos)
	})
	ctx.Logger.Debug().Float64("x", pos.X).Float64("y", pos.Y).Msg("spawning sprite")
}

func (h *Handler) despawnAll(ctx *execctx.ExecutionContext) error {
	n := 0
	for e := range world.Query[Sprite](ctx.World) {
		ctx.Commands().Despawn(e)
		n++
	}
	ctx.Logger.Debug().Int("count", n).Msg("despawning sprites")
	return nil
}

func (h *Handler) list(ctx *execctx.ExecutionContext) error {
	now := h.now()
	n := 0
	for e, s := range world.Query[Sprite](ctx.World) {
		pos, _ := world.Get[Position](ctx.World, e)
		if pos == nil {
			pos = &Position{}
		}
		fmt.Fprintf(h.out, "%d at (%.1f, %.1f) expires in %s\n",
			e, pos.X, pos.Y, s.Expires.Sub(now).Round(time.Millisecond))
		n++
	}
	fmt.Fprintf(h.out, "%d sprite(s)\n", n)
	return nil
}

// Expire despawns sprites whose lifetime has ended and returns how many
// were removed.
func Expire(w *world.World, now time.Time) int {
	var expired []world.Entity
	for e, s := range world.Query[Sprite](w) {
		if !now.Before(s.Expires) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		w.Despawn(e)
	}
	return len(expired)
}
