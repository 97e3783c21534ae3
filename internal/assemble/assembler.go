// Package assemble renders order documents from a DOCX template using a
// mail-merge model: scalar header fields, a category loop and a nested line
// item loop. Hyperlinks are injected in a second pass over the rendered part.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"supplydesk/internal"
	"supplydesk/internal/docx"
)

const (
	PDFContentType   = "application/pdf"
	DefaultLinkLabel = "View product"
)

// Converter turns one document format into another.
type Converter interface {
	Convert(ctx context.Context, data []byte, from, to string) ([]byte, error)
}

type Options struct {
	Template     []byte
	Placeholder  []byte
	Fetcher      ImageFetcher
	Converter    Converter
	FetchTimeout time.Duration
	ImageEMU     int64
	LinkLabel    string
	Now          func() time.Time
	Logger       *slog.Logger

	// OnImageFallback is called whenever an item ends up with the placeholder.
	OnImageFallback func(code string)
}

type Assembler struct {
	template     []byte
	placeholder  []byte
	fetcher      ImageFetcher
	converter    Converter
	fetchTimeout time.Duration
	imageEMU     int64
	linkLabel    string
	now          func() time.Time
	logger       *slog.Logger
	validate     *validator.Validate
	onFallback   func(code string)
}

func New(opts Options) *Assembler {
	a := &Assembler{
		template:     opts.Template,
		placeholder:  opts.Placeholder,
		fetcher:      opts.Fetcher,
		converter:    opts.Converter,
		fetchTimeout: opts.FetchTimeout,
		imageEMU:     opts.ImageEMU,
		linkLabel:    opts.LinkLabel,
		now:          opts.Now,
		logger:       opts.Logger,
		validate:     validator.New(),
		onFallback:   opts.OnImageFallback,
	}
	if a.imageEMU <= 0 {
		a.imageEMU = docx.DefaultImageEMU
	}
	if a.linkLabel == "" {
		a.linkLabel = DefaultLinkLabel
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.onFallback == nil {
		a.onFallback = func(string) {}
	}
	_ = a.validate.RegisterValidation("notblank", validators.NotBlank)
	return a
}

// LoadPlaceholder reads the placeholder image once at start-up. An empty
// path means items without images render without a picture.
func LoadPlaceholder(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read placeholder image: %w", err)
	}
	if _, ct, ok := docx.ImageFormat(data); !ok {
		return nil, fmt.Errorf("placeholder image %s: unsupported content type %s", path, ct)
	}
	return data, nil
}

// Validate rejects malformed requests: a non-blank address and at least
// one line item.
func (a *Assembler) Validate(req internal.RenderRequest) error {
	err := a.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "notblank":
			return &ValidationError{Field: fe.Field(), Reason: "must not be blank"}
		case "min":
			return &ValidationError{Field: fe.Field(), Reason: "must contain at least one item"}
		default:
			return &ValidationError{Field: fe.Field(), Reason: "failed " + fe.Tag()}
		}
	}
	return &ValidationError{Field: "request", Reason: err.Error()}
}

// Render produces the native DOCX order document.
func (a *Assembler) Render(ctx context.Context, req internal.RenderRequest) (internal.RenderedDocument, error) {
	if err := a.Validate(req); err != nil {
		return internal.RenderedDocument{}, err
	}
	if len(a.template) == 0 {
		return internal.RenderedDocument{}, &docx.StructuralError{Reason: "missing template"}
	}
	pkg, err := docx.Open(a.template)
	if err != nil {
		return internal.RenderedDocument{}, err
	}
	part, doc, err := pkg.MainDocument()
	if err != nil {
		return internal.RenderedDocument{}, err
	}

	started := time.Now()
	images := a.resolveImages(ctx, req.LineItems)
	scope, links := a.bind(req, images)

	m, err := newMerger(pkg, part, a.imageEMU)
	if err != nil {
		return internal.RenderedDocument{}, err
	}
	root := doc.Root()
	root.EnsureNamespace("r", docx.NSRelationships)
	root.EnsureNamespace("wp", docx.NSWordDrawing)
	if err := m.renderChildren(root.Find("w", "body"), scope); err != nil {
		return internal.RenderedDocument{}, err
	}
	pkg.SetPart(part, doc.Encode())
	m.rels.Save(pkg)

	added, err := injectHyperlinks(pkg, part, links, a.linkLabel)
	if err != nil {
		return internal.RenderedDocument{}, err
	}
	data, err := pkg.Bytes()
	if err != nil {
		return internal.RenderedDocument{}, fmt.Errorf("write document: %w", err)
	}
	a.logger.Info("rendered order document",
		"address", req.Address, "items", len(req.LineItems), "hyperlinks", added,
		"bytes", len(data), "elapsed", time.Since(started))
	return internal.RenderedDocument{
		Filename:    Filename(req.Address, req.Date, a.now(), ".docx"),
		ContentType: docx.DocxContentType,
		Data:        data,
	}, nil
}

// RenderPDF renders and converts to PDF. When conversion fails the native
// document is returned together with a *ConversionError.
func (a *Assembler) RenderPDF(ctx context.Context, req internal.RenderRequest) (internal.RenderedDocument, error) {
	native, err := a.Render(ctx, req)
	if err != nil {
		return internal.RenderedDocument{}, err
	}
	if a.converter == nil {
		return native, &ConversionError{Target: "pdf", Document: native, Cause: errors.New("no converter configured")}
	}
	pdf, err := a.converter.Convert(ctx, native.Data, "docx", "pdf")
	if err != nil {
		a.logger.Warn("pdf conversion failed, returning docx", "filename", native.Filename, "error", err)
		return native, &ConversionError{Target: "pdf", Document: native, Cause: err}
	}
	return internal.RenderedDocument{
		Filename:    strings.TrimSuffix(native.Filename, ".docx") + ".pdf",
		ContentType: PDFContentType,
		Data:        pdf,
	}, nil
}

// bind builds the merge scope. Links become markers numbered in the order
// items are emitted, which is category order.
func (a *Assembler) bind(req internal.RenderRequest, images [][]byte) (*Scope, *linkMarkers) {
	top := NewScope()
	top.Values["address"] = strings.TrimSpace(req.Address)
	top.Values["date"] = strings.TrimSpace(req.Date)
	if top.Values["date"] == "" {
		top.Values["date"] = a.now().Format("02/01/2006")
	}
	top.Values["contactName"] = req.ContactName
	top.Values["company"] = req.Company
	top.Values["phoneNumber"] = req.PhoneNumber
	top.Values["email"] = req.Email

	links := newLinkMarkers()
	for _, group := range GroupByCategory(req.LineItems) {
		cat := NewScope()
		cat.Values["category"] = group.Category
		for _, i := range group.Items {
			item := req.LineItems[i]
			s := NewScope()
			s.Values["category"] = group.Category
			s.Values["code"] = item.Code
			s.Values["description"] = item.Description
			s.Values["productDetails"] = item.ProductDetails
			s.Values["quantity"] = item.Quantity
			s.Values["notes"] = item.Notes
			s.Values["link"] = ""
			if link := strings.TrimSpace(item.Link); link != "" {
				s.Values["link"] = links.add(link)
			}
			s.Images["image"] = images[i]
			cat.Loops["items"] = append(cat.Loops["items"], s)
		}
		top.Loops["categories"] = append(top.Loops["categories"], cat)
	}
	return top, links
}
