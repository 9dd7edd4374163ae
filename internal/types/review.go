package types

// Review is a single customer review extracted from a product detail page.
//
// Review must stay comparable: result sets key on the whole value, so two
// reviews that agree on every field collapse into one row.
type Review struct {
	ProductURL    string `json:"product_url"          bson:"product_url"`
	ProductName   string `json:"product_name"         bson:"product_name"`
	ProductID     string `json:"product_id"           bson:"product_id"`
	Author        string `json:"review_author"        bson:"review_author"`
	Date          string `json:"review_date"          bson:"review_date"`
	Comment       string `json:"review_comment"       bson:"review_comment"`
	Advantages    string `json:"review_advantages"    bson:"review_advantages"`
	Disadvantages string `json:"review_disadvantages" bson:"review_disadvantages"`
	Rating        string `json:"review_rating"        bson:"review_rating"`
	Images        string `json:"review_images"        bson:"review_images"`
}

// ReviewColumns is the header row of every tabular export, in column order.
var ReviewColumns = []string{
	"product_url",
	"product_name",
	"product_id",
	"review_author",
	"review_date",
	"review_comment",
	"review_advantages",
	"review_disadvantages",
	"review_rating",
	"review_images",
}

// Row returns the review's values in ReviewColumns order.
func (r Review) Row() []string {
	return []string{
		r.ProductURL,
		r.ProductName,
		r.ProductID,
		r.Author,
		r.Date,
		r.Comment,
		r.Advantages,
		r.Disadvantages,
		r.Rating,
		r.Images,
	}
}

// Product identifies the detail page a set of reviews was taken from.
type Product struct {
	URL  string
	Name string
	ID   string
}

// NewReview starts a review for the given product with the configured rating.
func NewReview(p Product, rating string) Review {
	return Review{
		ProductURL:  p.URL,
		ProductName: p.Name,
		ProductID:   p.ID,
		Rating:      rating,
	}
}
