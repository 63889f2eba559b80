package heuristic

import (
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aishwarya1-1/AutomateAccounts/internal/extract"
)

func TestHeuristic(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Heuristic Suite")
}

var _ = Describe("Extract", func() {
	var (
		text   string
		result extract.Result
	)

	JustBeforeEach(func() {
		result = Extract(text)
	})

	When("given a typical receipt", func() {
		BeforeEach(func() {
			text = "Joe's Diner\n01/02/2023\nTotal: 5.00 12.50\n"
		})

		It("succeeds", func() {
			Expect(result.Success).To(BeTrue())
		})

		It("takes the first plausible header line as merchant", func() {
			Expect(result.MerchantName).To(Equal("Joe's Diner"))
		})

		It("keeps the date as the literal matched substring", func() {
			Expect(result.PurchasedAt).To(Equal("01/02/2023"))
		})

		It("takes the last decimal on the total line", func() {
			Expect(result.TotalAmount.String()).To(Equal("12.50"))
		})

		It("returns no line items", func() {
			Expect(result.Items).To(BeEmpty())
		})
	})

	When("given empty text", func() {
		BeforeEach(func() {
			text = ""
		})

		It("still succeeds", func() {
			Expect(result.Success).To(BeTrue())
		})

		It("falls back to the unknown merchant placeholder", func() {
			Expect(result.MerchantName).To(Equal(UnknownMerchant))
		})

		It("leaves the total empty", func() {
			Expect(result.TotalAmount.IsEmpty()).To(BeTrue())
		})

		It("leaves the date empty", func() {
			Expect(result.PurchasedAt).To(BeEmpty())
		})
	})

	When("the header lines are boilerplate", func() {
		BeforeEach(func() {
			text = "RECEIPT\nDate: 05/06/2022\nTel: 555-0134\nAcme Hardware\nTotal 44.10\n"
		})

		It("skips denylisted lines and picks the first real name", func() {
			Expect(result.MerchantName).To(Equal("Acme Hardware"))
		})

		It("still finds the date on a boilerplate line", func() {
			Expect(result.PurchasedAt).To(Equal("05/06/2022"))
		})
	})

	When("the merchant name only appears after the header window", func() {
		BeforeEach(func() {
			text = "a\nb\nc\nd\ne\nAcme Hardware\nTotal 9.99\n"
		})

		It("keeps the unknown placeholder", func() {
			Expect(result.MerchantName).To(Equal(UnknownMerchant))
		})
	})

	When("several total lines exist", func() {
		BeforeEach(func() {
			text = "Store\nSubtotal 4.00\nTotal 8.25\nTotal 9.99\n"
		})

		It("fixes the amount on the first total line", func() {
			// "Subtotal" contains "total" so its amount wins.
			Expect(result.TotalAmount.String()).To(Equal("4.00"))
		})
	})

	When("a total line has no decimal amount", func() {
		BeforeEach(func() {
			text = "Store\nTotal due below\nTotal 7.50\n"
		})

		It("keeps scanning later total lines", func() {
			Expect(result.TotalAmount.String()).To(Equal("7.50"))
		})
	})

	When("the date uses dashes", func() {
		BeforeEach(func() {
			text = "Store\n12-31-2023\n"
		})

		It("matches the dash pattern", func() {
			Expect(result.PurchasedAt).To(Equal("12-31-2023"))
		})
	})

	When("the date is ISO formatted", func() {
		BeforeEach(func() {
			text = "Store\n2023-12-31\n"
		})

		It("lets the higher-priority dash pattern claim the tail", func() {
			// The dash pattern runs before the ISO one and matches a
			// substring of the ISO date. Inherited behavior, pinned.
			Expect(result.PurchasedAt).To(Equal("23-12-31"))
		})
	})
})
