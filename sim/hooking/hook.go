// Package hooking defines the instrumentation points shared by the engine,
// the transport, and the schedulers.
package hooking

// HookPos names a point in a scheduler or engine cycle where hooks run, such
// as before an event is dispatched or after a fire.
type HookPos struct {
	Name string
}

// HookCtx is passed to every hook invocation.
type HookCtx struct {
	// Domain raised the hook.
	Domain Hookable

	// Pos is where in the cycle the hook runs.
	Pos *HookPos

	// Item is the event being dispatched, or the scheduler that fired.
	Item any

	// Detail is the FireInfo of a scheduler fire or the error returned by an
	// event handler. It is nil when the site has nothing to add.
	Detail any
}

// Hookable is implemented by the engine and the schedulers.
type Hookable interface {
	// AcceptHook adds a hook. The hook list is read without a lock while
	// the transport runs, so attach hooks before starting it.
	AcceptHook(hook Hook)

	NumHooks() int

	Hooks() []Hook
}

// Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc lets a plain function serve as a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase keeps the hook list for a type that embeds it.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase returns an empty HookableBase.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns how many hooks are attached.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the attached hooks in the order they were added.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook appends a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook runs every attached hook with ctx, in order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
