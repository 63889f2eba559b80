package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/entity"
)

func TestExport(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Export Suite")
}

type mockReceiptsRepo struct {
	receipts []*entity.Receipt
	listErr  error
}

func (m *mockReceiptsRepo) SaveProcessed(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error) {
	m.receipts = append(m.receipts, rec)
	return rec, nil
}

func (m *mockReceiptsRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return nil, common.ErrNotFound
}

func (m *mockReceiptsRepo) GetBySourceFile(ctx context.Context, fileID uuid.UUID) (*entity.Receipt, error) {
	return nil, common.ErrNotFound
}

func (m *mockReceiptsRepo) List(ctx context.Context) ([]*entity.Receipt, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.receipts, nil
}

var _ = Describe("ReceiptsXLSX", func() {
	var (
		repo    *mockReceiptsRepo
		service *Service
		data    []byte
		err     error
	)

	BeforeEach(func() {
		repo = &mockReceiptsRepo{}
	})

	JustBeforeEach(func() {
		service = NewService(repo, nil)
		data, err = service.ReceiptsXLSX(context.Background())
	})

	When("receipts exist", func() {
		BeforeEach(func() {
			merchant := "Joe's Diner"
			total := 12.50
			currency := "USD"
			when := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
			desc := "Coffee"
			repo.receipts = []*entity.Receipt{
				{
					ID:           uuid.New(),
					MerchantName: &merchant,
					TotalAmount:  &total,
					Currency:     &currency,
					PurchasedAt:  &when,
					FilePath:     "/uploads/r.pdf",
					Items:        []entity.LineItem{{Description: &desc}},
				},
				{
					ID:       uuid.New(),
					FilePath: "/uploads/empty.pdf",
				},
			}
		})

		It("produces a readable workbook", func() {
			Expect(err).NotTo(HaveOccurred())

			f, openErr := excelize.OpenReader(bytes.NewReader(data))
			Expect(openErr).NotTo(HaveOccurred())
			defer f.Close()

			rows, rowsErr := f.GetRows("Receipts")
			Expect(rowsErr).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
		})

		It("writes a header row", func() {
			f, _ := excelize.OpenReader(bytes.NewReader(data))
			defer f.Close()

			v, cellErr := f.GetCellValue("Receipts", "A1")
			Expect(cellErr).NotTo(HaveOccurred())
			Expect(v).To(Equal("Purchase Date"))
		})

		It("formats dates as YYYY-MM-DD", func() {
			f, _ := excelize.OpenReader(bytes.NewReader(data))
			defer f.Close()

			v, _ := f.GetCellValue("Receipts", "A2")
			Expect(v).To(Equal("2023-02-01"))
		})

		It("leaves missing fields blank", func() {
			f, _ := excelize.OpenReader(bytes.NewReader(data))
			defer f.Close()

			v, _ := f.GetCellValue("Receipts", "B3")
			Expect(v).To(BeEmpty())
		})
	})

	When("no receipts exist", func() {
		It("still produces a workbook with only the header", func() {
			Expect(err).NotTo(HaveOccurred())

			f, openErr := excelize.OpenReader(bytes.NewReader(data))
			Expect(openErr).NotTo(HaveOccurred())
			defer f.Close()

			rows, rowsErr := f.GetRows("Receipts")
			Expect(rowsErr).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})
	})

	When("the repository fails", func() {
		BeforeEach(func() {
			repo.listErr = context.DeadlineExceeded
		})

		It("propagates the error", func() {
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(data).To(BeNil())
		})
	})
})
