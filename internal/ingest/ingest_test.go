package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aishwarya1-1/AutomateAccounts/internal/common"
	"github.com/aishwarya1-1/AutomateAccounts/internal/entity"
)

func TestIngest(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Suite")
}

type mockFilesRepo struct {
	rows      map[uuid.UUID]*entity.SourceFile
	createErr error
}

func newMockFilesRepo() *mockFilesRepo {
	return &mockFilesRepo{rows: make(map[uuid.UUID]*entity.SourceFile)}
}

func (m *mockFilesRepo) Create(ctx context.Context, fileName, filePath string) (*entity.SourceFile, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	f := &entity.SourceFile{ID: uuid.New(), FileName: fileName, FilePath: filePath}
	m.rows[f.ID] = f
	return f, nil
}

func (m *mockFilesRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.SourceFile, error) {
	f, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return f, nil
}

func (m *mockFilesRepo) List(ctx context.Context) ([]*entity.SourceFile, error) {
	out := make([]*entity.SourceFile, 0, len(m.rows))
	for _, f := range m.rows {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockFilesRepo) MarkValidated(ctx context.Context, id uuid.UUID, valid bool, reason string, pages int) error {
	f, ok := m.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	f.IsValid = valid
	f.PageCount = pages
	if reason == "" {
		f.InvalidReason = nil
	} else {
		f.InvalidReason = &reason
	}
	return nil
}

func (m *mockFilesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		uploadDir string
		repo      *mockFilesRepo
		service   *Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		uploadDir = GinkgoT().TempDir()
		repo = newMockFilesRepo()

		var err error
		service, err = NewService(uploadDir, 1<<20, repo, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("SaveUpload", func() {
		It("stores the bytes under a unique sanitized name", func() {
			row, err := service.SaveUpload(ctx, "my receipt.pdf", strings.NewReader("%PDF-1.4 fake"))
			Expect(err).NotTo(HaveOccurred())

			Expect(row.FileName).To(HaveSuffix("_my_receipt.pdf"))
			Expect(row.FileName).NotTo(ContainSubstring(" "))

			data, err := os.ReadFile(row.FilePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("%PDF-1.4 fake"))
		})

		It("gives repeated uploads of the same name distinct paths", func() {
			a, err := service.SaveUpload(ctx, "r.pdf", strings.NewReader("one"))
			Expect(err).NotTo(HaveOccurred())
			b, err := service.SaveUpload(ctx, "r.pdf", strings.NewReader("two"))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.FilePath).NotTo(Equal(b.FilePath))
		})

		It("rejects non-PDF uploads before writing anything", func() {
			_, err := service.SaveUpload(ctx, "photo.jpg", strings.NewReader("bytes"))
			Expect(err).To(MatchError(common.ErrInvalidInput))

			entries, err := os.ReadDir(uploadDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("rejects uploads above the size limit and cleans up", func() {
			service, err := NewService(uploadDir, 8, repo, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SaveUpload(ctx, "big.pdf", strings.NewReader("way more than eight bytes"))
			Expect(err).To(MatchError(common.ErrInvalidInput))

			entries, readErr := os.ReadDir(uploadDir)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("removes the stored file when the record cannot be created", func() {
			repo.createErr = errors.New("db down")

			_, err := service.SaveUpload(ctx, "r.pdf", strings.NewReader("bytes"))
			Expect(err).To(MatchError(repo.createErr))

			entries, readErr := os.ReadDir(uploadDir)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("Validate", func() {
		var row *entity.SourceFile

		BeforeEach(func() {
			var err error
			row, err = service.SaveUpload(ctx, "r.pdf", strings.NewReader("not actually a pdf"))
			Expect(err).NotTo(HaveOccurred())
		})

		When("the parser accepts the document", func() {
			BeforeEach(func() {
				service.countPages = func(path string) (int, error) { return 2, nil }
			})

			It("marks the file valid with its page count", func() {
				got, err := service.Validate(ctx, row.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.IsValid).To(BeTrue())
				Expect(got.PageCount).To(Equal(2))
				Expect(got.InvalidReason).To(BeNil())
			})
		})

		When("the parser rejects the document", func() {
			BeforeEach(func() {
				service.countPages = func(path string) (int, error) {
					return 0, errors.New("open pdf: not a PDF")
				}
			})

			It("marks the file invalid with the parser's reason", func() {
				got, err := service.Validate(ctx, row.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.IsValid).To(BeFalse())
				Expect(got.InvalidReason).NotTo(BeNil())
				Expect(*got.InvalidReason).To(Equal("open pdf: not a PDF"))
			})
		})

		When("the file is unknown", func() {
			It("returns ErrNotFound", func() {
				_, err := service.Validate(ctx, uuid.New())
				Expect(err).To(MatchError(common.ErrNotFound))
			})
		})
	})
})

var _ = Describe("sanitizeFilename", func() {
	It("strips directories", func() {
		Expect(sanitizeFilename("../../etc/passwd.pdf")).To(Equal("passwd.pdf"))
	})

	It("replaces unsafe characters", func() {
		Expect(sanitizeFilename("my receipt (1).pdf")).To(Equal("my_receipt_1_.pdf"))
	})

	It("never returns an empty name", func() {
		Expect(sanitizeFilename("???")).To(Equal("upload.pdf"))
	})
})
