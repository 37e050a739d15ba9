package nomad

import "time"

// Cafe is the list representation of a cafe.
type Cafe struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"imageUrl"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	LogoURL       string   `json:"logoUrl"`
	Category      string   `json:"category"`
	CategoryColor string   `json:"categoryColor"`
	PriceLevel    int      `json:"priceLevel"`
	City          string   `json:"city"`
	LocationName  string   `json:"locationName"`
	Phone         string   `json:"phone"`
	RatingAvg     float64  `json:"ratingAvg"`
	RatingCount   int      `json:"ratingCount"`
	IsFeatured    bool     `json:"isFeatured"`
	IsFavorited   bool     `json:"isFavorited"`
	Features      []string `json:"features"`
}

// Location is a city or area cafes are grouped by. List and trending
// responses fill a subset of the fields.
type Location struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	CountryCode  string    `json:"countryCode"`
	Region       string    `json:"region"`
	Timezone     string    `json:"timezone"`
	ImageURL     string    `json:"imageUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	HeroImageURL string    `json:"heroImageUrl"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	CafeCount    int       `json:"cafeCount"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CafeDetail is the full representation of a cafe.
type CafeDetail struct {
	Cafe

	Overview     string            `json:"overview"`
	Location     *Location         `json:"location"`
	Address      string            `json:"address"`
	AddressLine2 string            `json:"addressLine_2"`
	PostalCode   string            `json:"postalCode"`
	Latitude     float64           `json:"latitude"`
	Longitude    float64           `json:"longitude"`
	Email        string            `json:"email"`
	Website      string            `json:"website"`
	SocialLinks  map[string]string `json:"socialLinks"`
	Gallery      []string          `json:"gallery"`
	Amenities    []string          `json:"amenities"`
	OpeningHours map[string]any    `json:"openingHours"`
	Timezone     string            `json:"timezone"`
	RatingWifi   float64           `json:"ratingWifi"`
	RatingPower  float64           `json:"ratingPower"`
	RatingNoise  float64           `json:"ratingNoise"`
	RatingCoffee float64           `json:"ratingCoffee"`
	IsVerified   bool              `json:"isVerified"`
	OwnerName    string            `json:"ownerName"`
	OwnerRole    string            `json:"ownerRole"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Review is a published review.
type Review struct {
	ID              string    `json:"id"`
	AuthorName      string    `json:"authorName"`
	AuthorAvatarURL string    `json:"authorAvatarUrl"`
	RatingOverall   int       `json:"ratingOverall"`
	RatingWifi      *int      `json:"ratingWifi"`
	RatingPower     *int      `json:"ratingPower"`
	RatingNoise     *int      `json:"ratingNoise"`
	RatingCoffee    *int      `json:"ratingCoffee"`
	Text            string    `json:"text"`
	Language        string    `json:"language"`
	Photos          []string  `json:"photos"`
	IsVerified      bool      `json:"isVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ReviewCreate is the payload for a new review. Sub-ratings are optional.
type ReviewCreate struct {
	RatingOverall int      `json:"ratingOverall"`
	RatingWifi    *int     `json:"ratingWifi,omitempty"`
	RatingPower   *int     `json:"ratingPower,omitempty"`
	RatingNoise   *int     `json:"ratingNoise,omitempty"`
	RatingCoffee  *int     `json:"ratingCoffee,omitempty"`
	Text          string   `json:"text"`
	Language      string   `json:"language,omitempty"`
	Photos        []string `json:"photos,omitempty"`
}

// ReviewUpdate is a partial review update. Nil fields are left unchanged.
type ReviewUpdate struct {
	RatingOverall *int     `json:"ratingOverall,omitempty"`
	RatingWifi    *int     `json:"ratingWifi,omitempty"`
	RatingPower   *int     `json:"ratingPower,omitempty"`
	RatingNoise   *int     `json:"ratingNoise,omitempty"`
	RatingCoffee  *int     `json:"ratingCoffee,omitempty"`
	Text          *string  `json:"text,omitempty"`
	Language      *string  `json:"language,omitempty"`
	Photos        []string `json:"photos,omitempty"`
}

// UserReview is a review written by the current user, with its cafe.
type UserReview struct {
	ID            string    `json:"id"`
	CafeID        string    `json:"cafeId"`
	CafeName      string    `json:"cafeName"`
	CafeSlug      string    `json:"cafeSlug"`
	CafeThumbnail string    `json:"cafeThumbnail"`
	CafeCity      string    `json:"cafeCity"`
	RatingOverall int       `json:"ratingOverall"`
	RatingWifi    *int      `json:"ratingWifi"`
	RatingPower   *int      `json:"ratingPower"`
	RatingNoise   *int      `json:"ratingNoise"`
	RatingCoffee  *int      `json:"ratingCoffee"`
	Text          string    `json:"text"`
	Language      string    `json:"language"`
	Photos        []string  `json:"photos"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Favorite is a cafe saved by the current user.
type Favorite struct {
	ID        string    `json:"id"`
	Cafe      Cafe      `json:"cafe"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats holds the platform counters.
type Stats struct {
	Cafes     int `json:"cafes"`
	Locations int `json:"locations"`
	Users     int `json:"users"`
	Reviews   int `json:"reviews"`
}

// Choice is a value/label pair.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Metadata lists the allowed filter values.
type Metadata struct {
	Categories     []Choice          `json:"categories"`
	Features       []Choice          `json:"features"`
	TopFeatures    []string          `json:"topFeatures"`
	CategoryColors map[string]string `json:"categoryColors"`
}

// User is the authenticated user.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Bio             string    `json:"bio"`
	DisplayName     string    `json:"displayName"`
	AvatarURL       string    `json:"avatarUrl"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the payload for a new account. Name is optional.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type authResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

type favoriteRequest struct {
	CafeID string `json:"cafeId"`
}

type favoriteCheck struct {
	IsFavorited bool `json:"isFavorited"`
}
