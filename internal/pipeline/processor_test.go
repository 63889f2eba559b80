package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aishwarya1-1/AutomateAccounts/internal/extract"
	"github.com/aishwarya1-1/AutomateAccounts/internal/heuristic"
)

func TestPipeline(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

type stubRecognizer struct {
	text  string
	err   error
	calls int
}

func (s *stubRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubExtractor struct {
	result extract.Result
	calls  int
}

func (s *stubExtractor) ExtractFromText(ctx context.Context, text string) extract.Result {
	s.calls++
	return s.result
}

var _ = Describe("Processor", func() {
	var (
		recognizer *stubRecognizer
		ai         *stubExtractor
		processor  *Processor
		result     extract.Result
	)

	BeforeEach(func() {
		recognizer = &stubRecognizer{text: "Joe's Diner\n01/02/2023\nTotal: 5.00 12.50\n"}
		ai = &stubExtractor{result: extract.Successful(extract.Fields{MerchantName: "Joe's Diner LLC"})}
		processor = NewProcessor(nil, recognizer, ai)
	})

	JustBeforeEach(func() {
		result = processor.Process(context.Background(), "/tmp/receipt.pdf")
	})

	When("the AI extractor succeeds", func() {
		It("returns the AI result untouched", func() {
			Expect(result.Success).To(BeTrue())
			Expect(result.MerchantName).To(Equal("Joe's Diner LLC"))
		})

		It("consults the AI exactly once", func() {
			Expect(ai.calls).To(Equal(1))
		})
	})

	When("the AI extractor succeeds with sparse fields", func() {
		BeforeEach(func() {
			ai.result = extract.Successful(extract.Fields{})
		})

		It("still wins over the heuristic, no merging", func() {
			Expect(result.Success).To(BeTrue())
			Expect(result.MerchantName).To(BeEmpty())
		})
	})

	When("the AI extractor fails", func() {
		BeforeEach(func() {
			ai.result = extract.Failure("quota exceeded")
		})

		It("falls back to the heuristic result", func() {
			Expect(result).To(Equal(heuristic.Extract(recognizer.text)))
		})

		It("reports success regardless", func() {
			Expect(result.Success).To(BeTrue())
			Expect(result.Error).To(BeEmpty())
		})
	})

	When("recognition fails", func() {
		BeforeEach(func() {
			recognizer.err = errors.New("tesseract exited with status 1")
		})

		It("short-circuits into a failed result", func() {
			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("tesseract exited with status 1"))
		})

		It("never consults the AI extractor", func() {
			Expect(ai.calls).To(BeZero())
		})
	})
})
