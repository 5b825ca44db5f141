package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var (
		base *HookableBase
		pos  *HookPos
	)

	BeforeEach(func() {
		base = NewHookableBase()
		pos = &HookPos{Name: "Test"}
	})

	It("should invoke hooks in registration order", func() {
		var calls []string
		base.AcceptHook(HookFunc(func(ctx HookCtx) {
			calls = append(calls, "first:"+ctx.Pos.Name)
		}))
		base.AcceptHook(HookFunc(func(ctx HookCtx) {
			calls = append(calls, "second:"+ctx.Pos.Name)
		}))

		base.InvokeHook(HookCtx{Domain: base, Pos: pos})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(calls).To(Equal([]string{"first:Test", "second:Test"}))
	})

	It("should pass item and detail through", func() {
		var got HookCtx
		base.AcceptHook(HookFunc(func(ctx HookCtx) { got = ctx }))

		base.InvokeHook(HookCtx{Domain: base, Pos: pos, Item: 1, Detail: "d"})

		Expect(got.Item).To(Equal(1))
		Expect(got.Detail).To(Equal("d"))
		Expect(got.Domain).To(BeIdenticalTo(base))
	})
})
