package pipeline

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/categorize"
	"github.com/spesti-app/receipts-core/internal/common"
	"github.com/spesti-app/receipts-core/internal/llm"
	"github.com/spesti-app/receipts-core/internal/ocr"
)

func TestPipeline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

type fakeExtractor struct {
	text       string
	confidence float32
	err        error
}

func (f fakeExtractor) Extract(ctx context.Context, image []byte, mimeType string) (ocr.TextExtractionResult, error) {
	if f.err != nil {
		return ocr.TextExtractionResult{}, f.err
	}
	return ocr.TextExtractionResult{Text: f.text, Confidence: f.confidence}, nil
}

type fakeGenerator struct {
	fields  llm.DraftFields
	err     error
	calls   int
	lastOCR string
}

func (f *fakeGenerator) GenerateDraft(ctx context.Context, req llm.DraftRequest) (llm.DraftFields, []byte, error) {
	f.calls++
	f.lastOCR = req.OCRText
	if f.err != nil {
		return llm.DraftFields{}, nil, f.err
	}
	return f.fields, []byte(`{}`), nil
}

func validFields() llm.DraftFields {
	return llm.DraftFields{
		Retailer: "ЛИДЛ БЪЛГАРИЯ",
		Date:     "2024-03-01",
		Total:    "17.33",
		Items: []llm.ItemFields{
			{Name: "МЛЯКО ВЕРЕЯ 1Л", TotalPrice: "2.35"},
			{Name: "Сладолед мини класик", TotalPrice: "14.98", Quantity: "2", UnitPrice: "7.49"},
		},
	}
}

const lidlText = `ЛИДЛ БЪЛГАРИЯ ЕООД
МЛЯКО ВЕРЕЯ 1Л  2.35
Сладолед мини класик  14.98
ОБЩА СУМА  17.33
01.03.2024 14:22`

var _ = Describe("Pipeline", func() {
	var (
		ctx    context.Context
		engine *categorize.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		engine = categorize.NewEngine(nil, categorize.Config{}, nil, nil, nil)
	})

	build := func(extractor ocr.TextExtractor, gen llm.DraftGenerator) *Pipeline {
		return New(nil, Config{}, extractor, gen, engine, nil)
	}

	Describe("happy path", func() {
		It("accepts, normalizes and categorizes a valid draft", func() {
			gen := &fakeGenerator{fields: validFields()}
			p := build(fakeExtractor{text: lidlText, confidence: 0.9}, gen)

			res, err := p.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(constants.AttemptAccepted))
			Expect(res.Draft.UsedRawText).To(BeTrue())
			Expect(res.Draft.Retailer).To(Equal("ЛИДЛ БЪЛГАРИЯ"))

			Expect(res.Draft.Items[0].Name).To(Equal("Мляко Верея 1л"))
			Expect(res.Draft.Items[0].Category).NotTo(BeNil())
			Expect(res.Draft.Items[0].Category.CategoryID).To(Equal(constants.Dairy))
			Expect(res.Draft.Items[0].Category.Method).To(Equal(constants.MethodKeywordRule))
		})

		It("flags low-confidence assignments for review", func() {
			fields := validFields()
			fields.Items = append(fields.Items, llm.ItemFields{Name: "Непознат артикул", TotalPrice: "1.00"})
			gen := &fakeGenerator{fields: fields}
			p := build(fakeExtractor{err: errors.New("down")}, gen)

			res, err := p.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			// default-bucket confidence 0.30 is below the 0.60 threshold
			Expect(res.NeedsReview).To(ContainElement(2))
			Expect(res.NeedsReview).NotTo(ContainElement(0))
		})

		It("passes OCR text to the generator as context", func() {
			gen := &fakeGenerator{fields: validFields()}
			p := build(fakeExtractor{text: lidlText, confidence: 0.9}, gen)

			_, err := p.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(gen.lastOCR).To(Equal(lidlText))
		})
	})

	Describe("OCR degradation", func() {
		It("continues on OCR failure with draft values only", func() {
			gen := &fakeGenerator{fields: validFields()}
			p := build(fakeExtractor{err: common.ErrExtractionUnavailable}, gen)

			res, err := p.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(constants.AttemptAccepted))
			Expect(res.Draft.UsedRawText).To(BeFalse())
			Expect(res.Draft.Reconciled).To(BeFalse())
			Expect(res.RawText).To(BeEmpty())
		})
	})

	Describe("draft failure", func() {
		It("fails the whole attempt when the generator errors", func() {
			gen := &fakeGenerator{err: common.ErrStructuringFailure}
			p := build(fakeExtractor{text: lidlText}, gen)

			res, err := p.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).To(MatchError(common.ErrStructuringFailure))
			Expect(res).To(BeNil())
		})
	})

	Describe("quality gate rejection", func() {
		It("returns the draft untouched alongside the error", func() {
			fields := validFields()
			fields.Items = nil
			gen := &fakeGenerator{fields: fields}
			p := build(fakeExtractor{err: errors.New("down")}, gen)

			res, err := p.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).To(MatchError(common.ErrQualityCheck))
			Expect(res).NotTo(BeNil())
			Expect(res.Status).To(Equal(constants.AttemptRejected))
			Expect(res.Gate.Accepted).To(BeFalse())
			Expect(res.Gate.Failures).NotTo(BeEmpty())
		})

		It("never normalizes or categorizes items of a rejected draft", func() {
			fields := validFields()
			fields.Total = "0.00"
			gen := &fakeGenerator{fields: fields}
			p := build(fakeExtractor{err: errors.New("down")}, gen)

			res, err := p.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).To(MatchError(common.ErrQualityCheck))
			// raw names are preserved for diagnosis
			Expect(res.Draft.Items[0].Name).To(Equal("МЛЯКО ВЕРЕЯ 1Л"))
			Expect(res.Draft.Items[0].Category).To(BeNil())
		})
	})

	Describe("confidence score", func() {
		It("scores a reconciled draft with confirmed date above a draft-only one", func() {
			gen := &fakeGenerator{fields: validFields()}
			withText := build(fakeExtractor{text: lidlText, confidence: 0.9}, gen)
			withoutText := build(fakeExtractor{err: errors.New("down")}, &fakeGenerator{fields: validFields()})

			full, err := withText.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			bare, err := withoutText.Process(ctx, []byte("img"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())

			Expect(full.Draft.Confidence).To(BeNumerically(">", bare.Draft.Confidence))
			Expect(full.Draft.Confidence).To(BeNumerically("<=", 100))
		})
	})
})
