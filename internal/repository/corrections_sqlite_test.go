package repository

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/entity"
)

func TestRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Repository Suite")
}

var _ = Describe("SQLiteCorrectionStore", func() {
	var (
		ctx   context.Context
		store *SQLiteCorrectionStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		path := filepath.Join(GinkgoT().TempDir(), "corrections.db")
		var err error
		store, err = NewSQLiteCorrectionStore(path, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("misses with ErrNotFound before any correction exists", func() {
		_, err := store.Get(ctx, "Мляко Верея 1л")
		Expect(err).To(MatchError(common.ErrNotFound))
	})

	It("round-trips a correction", func() {
		rec := entity.CorrectionRecord{
			NormalizedName: "Мляко Верея 1л",
			CategoryID:     constants.Dairy,
		}
		Expect(store.Put(ctx, rec)).To(Succeed())

		got, err := store.Get(ctx, "Мляко Верея 1л")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.NormalizedName).To(Equal("Мляко Верея 1л"))
		Expect(got.CategoryID).To(Equal(constants.Dairy))
		Expect(got.CreatedAt).NotTo(BeZero())
	})

	It("supersedes an earlier correction with the newest one", func() {
		first := entity.CorrectionRecord{NormalizedName: "Хляб Добруджа", CategoryID: constants.Dairy}
		second := entity.CorrectionRecord{NormalizedName: "Хляб Добруджа", CategoryID: constants.BasicFoods}
		Expect(store.Put(ctx, first)).To(Succeed())
		Expect(store.Put(ctx, second)).To(Succeed())

		got, err := store.Get(ctx, "Хляб Добруджа")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.CategoryID).To(Equal(constants.BasicFoods))
	})

	It("rejects use after Close", func() {
		Expect(store.Close()).To(Succeed())
		_, err := store.Get(ctx, "Мляко Верея 1л")
		Expect(err).To(HaveOccurred())

		// reopen so AfterEach can close a live handle
		path := filepath.Join(GinkgoT().TempDir(), "corrections.db")
		var errNew error
		store, errNew = NewSQLiteCorrectionStore(path, nil)
		Expect(errNew).NotTo(HaveOccurred())
	})
})
