package stream_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sklau6/RustLLMRunner/pkg/api"
	"github.com/sklau6/RustLLMRunner/pkg/stream"
)

var _ = Describe("Accumulator", func() {
	var acc *stream.Accumulator

	BeforeEach(func() {
		acc = stream.NewAccumulator(1)
	})

	It("starts awaiting the first chunk", func() {
		Expect(acc.State()).To(Equal(stream.StateAwaitingChunk))
		Expect(acc.Result().Text).To(BeEmpty())
	})

	Describe("Apply", func() {
		It("concatenates fragments in arrival order", func() {
			parts := []string{"fn ", "main", "() ", "{", " }"}
			for _, p := range parts {
				got, err := acc.Apply(text(p))
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal([]stream.Fragment{{Index: 0, Text: p}}))
			}

			Expect(acc.State()).To(Equal(stream.StateAccumulating))
			Expect(acc.Text(0)).To(Equal("fn main() { }"))
		})

		Context("with keep-alive frames", func() {
			It("leaves the initial state untouched", func() {
				_, err := acc.Apply(keepAlive())
				Expect(err).NotTo(HaveOccurred())
				Expect(acc.State()).To(Equal(stream.StateAwaitingChunk))
			})

			It("does not change accumulated text", func() {
				_, _ = acc.Apply(text("abc"))
				got, err := acc.Apply(keepAlive())
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(BeEmpty())
				Expect(acc.State()).To(Equal(stream.StateAccumulating))
				Expect(acc.Text(0)).To(Equal("abc"))
			})

			It("treats a role-only delta as a keep-alive", func() {
				chunk := keepAlive()
				chunk.Choices[0].Delta.Role = api.RoleAssistant
				_, err := acc.Apply(chunk)
				Expect(err).NotTo(HaveOccurred())
				Expect(acc.State()).To(Equal(stream.StateAwaitingChunk))
			})

			It("treats an empty string content as a keep-alive", func() {
				_, err := acc.Apply(text(""))
				Expect(err).NotTo(HaveOccurred())
				Expect(acc.State()).To(Equal(stream.StateAwaitingChunk))
			})

			It("treats an empty finish reason as non-terminal", func() {
				_, err := acc.Apply(finish(""))
				Expect(err).NotTo(HaveOccurred())
				Expect(acc.State()).To(Equal(stream.StateAwaitingChunk))
			})
		})

		It("appends content before honoring a finish reason in the same frame", func() {
			_, _ = acc.Apply(text("Hello"))
			chunk := text(" world")
			chunk.Choices[0].FinishReason = ptr(api.FinishReasonLength)

			got, err := acc.Apply(chunk)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]stream.Fragment{{Index: 0, Text: " world"}}))

			r := acc.Result()
			Expect(r.State).To(Equal(stream.StateDone))
			Expect(r.Text).To(Equal("Hello world"))
			Expect(r.FinishReason).To(Equal(api.FinishReasonLength))
		})

		It("ignores frames after DONE", func() {
			_, _ = acc.Apply(text("done"))
			_, _ = acc.Apply(finish(api.FinishReasonStop))

			got, err := acc.Apply(text(" late"))
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
			Expect(acc.Text(0)).To(Equal("done"))
			Expect(acc.Result().Frames).To(Equal(2))
		})

		It("fails on a choice index out of range and keeps prior text", func() {
			_, _ = acc.Apply(text("partial"))

			_, err := acc.Apply(indexed(3, "nope"))
			Expect(err).To(HaveOccurred())
			Expect(api.IsType(err, api.ErrorTypeStreamProtocolError)).To(BeTrue())
			Expect(acc.State()).To(Equal(stream.StateFailed))
			Expect(acc.Text(0)).To(Equal("partial"))
		})

		It("fails on a nil frame", func() {
			_, err := acc.Apply(nil)
			Expect(err).To(HaveOccurred())
			Expect(acc.State()).To(Equal(stream.StateFailed))
		})

		It("validates a frame as a whole before appending", func() {
			chunk := text("good")
			chunk.Choices = append(chunk.Choices, api.ChunkChoice{Index: -1})

			_, err := acc.Apply(chunk)
			Expect(err).To(HaveOccurred())
			Expect(acc.Text(0)).To(BeEmpty())
		})

		It("captures id, model and usage", func() {
			chunk := finish(api.FinishReasonStop)
			chunk.Usage = &api.Usage{PromptTokens: 4, CompletionTokens: 6, TotalTokens: 10}
			_, _ = acc.Apply(chunk)

			r := acc.Result()
			Expect(r.ID).To(Equal("chatcmpl-1"))
			Expect(r.Model).To(Equal("llama4:scout"))
			Expect(r.Usage).NotTo(BeNil())
			Expect(r.Usage.TotalTokens).To(Equal(10))
		})
	})

	Describe("multiple choices", func() {
		BeforeEach(func() {
			acc = stream.NewAccumulator(2)
		})

		It("accumulates each index separately", func() {
			_, _ = acc.Apply(indexed(0, "a"))
			_, _ = acc.Apply(indexed(1, "x"))
			_, _ = acc.Apply(indexed(0, "b"))
			_, _ = acc.Apply(indexed(1, "y"))

			Expect(acc.Text(0)).To(Equal("ab"))
			Expect(acc.Text(1)).To(Equal("xy"))
		})

		It("is done only when every choice has finished", func() {
			_, _ = acc.Apply(finishIndexed(0, api.FinishReasonStop))
			Expect(acc.State()).NotTo(Equal(stream.StateDone))

			_, _ = acc.Apply(indexed(1, "still going"))
			_, _ = acc.Apply(finishIndexed(1, api.FinishReasonLength))
			Expect(acc.State()).To(Equal(stream.StateDone))

			r := acc.Result()
			Expect(r.Choices).To(HaveLen(2))
			Expect(r.Choices[0].FinishReason).To(Equal(api.FinishReasonStop))
			Expect(r.Choices[1].FinishReason).To(Equal(api.FinishReasonLength))
		})

		It("drops content for a choice that already finished", func() {
			_, _ = acc.Apply(indexed(0, "a"))
			_, _ = acc.Apply(finishIndexed(0, api.FinishReasonStop))

			got, err := acc.Apply(indexed(0, "late"))
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
			Expect(acc.Text(0)).To(Equal("a"))
		})
	})

	Describe("Finish and Fail", func() {
		It("moves to DONE on a clean end without a finish reason", func() {
			_, _ = acc.Apply(text("cut"))
			acc.Finish()

			r := acc.Result()
			Expect(r.State).To(Equal(stream.StateDone))
			Expect(r.FinishReason).To(BeEmpty())
			Expect(r.Text).To(Equal("cut"))
		})

		It("keeps the first terminal outcome", func() {
			first := api.NewTransportFailure("reset", nil)
			Expect(acc.Fail(first)).To(Equal(first))

			acc.Finish()
			Expect(acc.Fail(api.NewServerError("later"))).To(Equal(first))
			Expect(acc.State()).To(Equal(stream.StateFailed))
			Expect(acc.Err()).To(Equal(first))
		})

		It("does not fail a completed stream", func() {
			_, _ = acc.Apply(finish(api.FinishReasonStop))
			Expect(acc.Fail(api.NewTransportFailure("late", nil))).To(BeNil())
			Expect(acc.State()).To(Equal(stream.StateDone))
		})
	})

	Describe("State", func() {
		DescribeTable("String",
			func(s stream.State, want string) {
				Expect(s.String()).To(Equal(want))
			},
			Entry("awaiting", stream.StateAwaitingChunk, "awaiting_chunk"),
			Entry("accumulating", stream.StateAccumulating, "accumulating"),
			Entry("done", stream.StateDone, "done"),
			Entry("failed", stream.StateFailed, "failed"),
			Entry("out of range", stream.State(42), "unknown"),
		)

		It("marks only DONE and FAILED terminal", func() {
			Expect(stream.StateAwaitingChunk.Terminal()).To(BeFalse())
			Expect(stream.StateAccumulating.Terminal()).To(BeFalse())
			Expect(stream.StateDone.Terminal()).To(BeTrue())
			Expect(stream.StateFailed.Terminal()).To(BeTrue())
		})
	})
})
