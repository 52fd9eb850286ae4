package stream_test

import (
	"context"
	"errors"
	"io"
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/stream"
)

var _ = Describe("Consume", func() {
	var (
		ctx  context.Context
		seen []stream.Fragment
		opts []stream.Option
	)

	BeforeEach(func() {
		ctx = context.Background()
		seen = nil
		opts = []stream.Option{
			stream.WithFragmentHandler(func(f stream.Fragment) { seen = append(seen, f) }),
		}
	})

	It("yields the accumulated text and finish reason", func() {
		src := frames(text("Hello"), text(" world"), finish(api.FinishReasonStop))

		r, err := stream.Consume(ctx, src, opts...)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.State).To(Equal(stream.StateDone))
		Expect(r.Text).To(Equal("Hello world"))
		Expect(r.FinishReason).To(Equal("stop"))
		Expect(seen).To(Equal([]stream.Fragment{
			{Index: 0, Text: "Hello"},
			{Index: 0, Text: " world"},
		}))
	})

	It("stops reading once DONE", func() {
		src := frames(text("a"), finish(api.FinishReasonStop), text("late"))

		r, err := stream.Consume(ctx, src, opts...)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Text).To(Equal("a"))
		Expect(src.reads).To(Equal(2))
	})

	It("treats a clean end-of-stream as DONE", func() {
		r, err := stream.Consume(ctx, frames(text("no marker")), opts...)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.State).To(Equal(stream.StateDone))
		Expect(r.Text).To(Equal("no marker"))
		Expect(r.FinishReason).To(BeEmpty())
	})

	It("handles an empty stream", func() {
		r, err := stream.Consume(ctx, frames(), opts...)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.State).To(Equal(stream.StateDone))
		Expect(r.Text).To(BeEmpty())
		Expect(seen).To(BeEmpty())
	})

	Context("when the source reports a malformed frame", func() {
		It("fails while keeping the text of earlier frames", func() {
			bad := api.NewStreamProtocolError("invalid frame payload", errors.New("unexpected token"))
			src := &scripted{steps: []step{
				{chunk: text("one ")},
				{chunk: text("two ")},
				{chunk: text("three")},
				{err: bad},
				{chunk: text(" never")},
			}}

			r, err := stream.Consume(ctx, src, opts...)
			Expect(err).To(MatchError(bad))
			Expect(r.State).To(Equal(stream.StateFailed))
			Expect(r.Text).To(Equal("one two three"))
			Expect(seen).To(HaveLen(3))
		})
	})

	Context("when the transport fails", func() {
		It("wraps the read error as a transport failure", func() {
			src := &scripted{steps: []step{
				{chunk: text("part")},
				{err: syscall.ECONNRESET},
			}}

			r, err := stream.Consume(ctx, src)
			Expect(api.IsType(err, api.ErrorTypeTransportFailure)).To(BeTrue())
			Expect(errors.Is(err, syscall.ECONNRESET)).To(BeTrue())
			Expect(r.State).To(Equal(stream.StateFailed))
			Expect(r.Text).To(Equal("part"))
		})

		It("reports a truncated frame as a protocol error", func() {
			src := &scripted{steps: []step{{err: io.ErrUnexpectedEOF}}}

			_, err := stream.Consume(ctx, src)
			Expect(api.IsType(err, api.ErrorTypeStreamProtocolError)).To(BeTrue())
		})
	})

	Context("when the caller cancels", func() {
		It("keeps text up to the last processed frame", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			handler := stream.WithFragmentHandler(func(f stream.Fragment) {
				seen = append(seen, f)
				if len(seen) == 2 {
					cancel()
				}
			})
			src := frames(text("a"), text("b"), text("c"), finish(api.FinishReasonStop))

			r, err := stream.Consume(cctx, src, handler)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(api.IsType(err, api.ErrorTypeTransportFailure)).To(BeTrue())
			Expect(r.State).To(Equal(stream.StateFailed))
			Expect(r.Text).To(Equal("ab"))
			Expect(src.reads).To(Equal(2))
		})

		It("drops a frame delivered after cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			src := stream.FrameSourceFunc(func(context.Context) (*api.StreamChunk, error) {
				cancel()
				return text("raced"), nil
			})

			r, err := stream.Consume(cctx, src)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(r.Text).To(BeEmpty())
		})

		It("does not read when already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			src := frames(text("x"))

			_, err := stream.Consume(cctx, src)
			Expect(err).To(HaveOccurred())
			Expect(src.reads).To(BeZero())
		})
	})

	It("tracks multiple choices until all finish", func() {
		src := frames(
			indexed(0, "left"),
			indexed(1, "right"),
			finishIndexed(1, api.FinishReasonStop),
			indexed(0, "!"),
			finishIndexed(0, api.FinishReasonStop),
		)

		r, err := stream.Consume(ctx, src, stream.WithChoices(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Choices[0].Text).To(Equal("left!"))
		Expect(r.Choices[1].Text).To(Equal("right"))
		Expect(r.Text).To(Equal("left!"))
	})
})
