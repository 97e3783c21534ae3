package internal

type Field string

const (
	FieldCode           Field = "code"
	FieldDescription    Field = "description"
	FieldImage          Field = "image"
	FieldPrice          Field = "price"
	FieldProductDetails Field = "productDetails"
	FieldBrand          Field = "brand"
	FieldKeywords       Field = "keywords"
	FieldLink           Field = "link"
	FieldArea           Field = "area"
	FieldSkip           Field = "skip"
)

func (f Field) Valid() bool {
	switch f {
	case FieldCode, FieldDescription, FieldImage, FieldPrice, FieldProductDetails,
		FieldBrand, FieldKeywords, FieldLink, FieldArea, FieldSkip:
		return true
	default:
		return false
	}
}

type ColumnMapping struct {
	Column int   `json:"column" yaml:"column"`
	Field  Field `json:"field" yaml:"field"`
}

type ExtractedRecord struct {
	Code           string  `json:"code"`
	Description    string  `json:"description"`
	ImageBytes     []byte  `json:"-"`
	Price          *string `json:"price,omitempty"`
	ProductDetails *string `json:"productDetails,omitempty"`
	Brand          *string `json:"brand,omitempty"`
	Keywords       *string `json:"keywords,omitempty"`
	Link           *string `json:"link,omitempty"`
	Area           *string `json:"area,omitempty"`
}

type CatalogEntry struct {
	ID          int     `json:"id"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Link        *string `json:"link,omitempty"`
	Brand       *string `json:"brand,omitempty"`
	Keywords    *string `json:"keywords,omitempty"`
	Area        *string `json:"area,omitempty"`
	ProductType *string `json:"productType,omitempty"`
	Supplier    *string `json:"supplier,omitempty"`
}

type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchContains  MatchType = "contains"
	MatchPartial   MatchType = "partial"
	MatchParts     MatchType = "parts"
	MatchSubstring MatchType = "substring"
)

type Suggestion struct {
	Entry     CatalogEntry `json:"entry"`
	Score     float64      `json:"score"`
	MatchType MatchType    `json:"matchType"`
}

type MatchResult struct {
	QueryCode   string        `json:"queryCode"`
	ExactMatch  *CatalogEntry `json:"exactMatch"`
	Suggestions []Suggestion  `json:"suggestions"`
}

func (m MatchResult) Matched() bool { return m.ExactMatch != nil }

type LineItem struct {
	Category       string `json:"category"`
	Code           string `json:"code"`
	Description    string `json:"description"`
	ProductDetails string `json:"productDetails"`
	Quantity       string `json:"quantity"`
	Notes          string `json:"notes"`
	ImageSource    string `json:"imageSource"`
	Link           string `json:"link"`
}

type RenderRequest struct {
	Address     string     `json:"address" validate:"notblank"`
	Date        string     `json:"date"`
	ContactName string     `json:"contactName"`
	Company     string     `json:"company"`
	PhoneNumber string     `json:"phoneNumber"`
	Email       string     `json:"email"`
	LineItems   []LineItem `json:"lineItems" validate:"min=1,dive"`
}

type RenderedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

type InboundDocument struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type ReviewRow struct {
	DocumentName   string
	Supplier       string
	QueryCode      string
	Description    string
	Price          string
	Status         string
	MatchedID      *int
	MatchedCode    *string
	MatchedDesc    *string
	Suggestion1    *string
	Suggestion1Pts *float64
	Suggestion2    *string
	Suggestion2Pts *float64
	Suggestion3    *string
	Suggestion3Pts *float64
}
