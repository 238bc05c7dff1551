package market

import (
	"strings"
	"time"
)

// Credentials is the body of /api/login/.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the body of POST /api/users/.
type Registration struct {
	Username             string `json:"username"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Category mirrors the category serializer.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Coordinates locates a user on the map.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the private postal location of an account.
type Location struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// InventoryItem is the compact item representation embedded in profiles.
type InventoryItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageID  int64  `json:"image_id"`
	ImageURL string `json:"image_url"`
	Archived bool   `json:"archived"`
}

// UserProfile mirrors /api/users/{username}/.
type UserProfile struct {
	ID                int64           `json:"id"`
	Username          string          `json:"username"`
	FirstName         string          `json:"first_name"`
	LastName          string          `json:"last_name"`
	ProfilePictureURL string          `json:"profile_picture_url"`
	Location          string          `json:"location"`
	Items             []InventoryItem `json:"items"`
	Notes             int             `json:"notes"`
	NoteAvg           float64         `json:"note_avg"`
	InterestedBy      []Category      `json:"interested_by"`
	Coordinates       Coordinates     `json:"coordinates"`
}

// FullName joins first and last name, falling back to the username.
func (u UserProfile) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Account mirrors /api/account/ for the logged-in user.
type Account struct {
	ID                int64      `json:"id"`
	Username          string     `json:"username"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email"`
	ProfilePictureURL string     `json:"profile_picture_url"`
	Location          Location   `json:"location"`
	Categories        []Category `json:"categories"`
	NoteAvg           float64    `json:"note_avg"`
	IsActive          bool       `json:"is_active"`
}

// Image is an uploaded picture attached to an item.
type Image struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// DetailedItem mirrors /api/items/{id}/.
type DetailedItem struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	PriceMin      int             `json:"price_min"`
	PriceMax      int             `json:"price_max"`
	Archived      bool            `json:"archived"`
	Owner         int64           `json:"owner"`
	OwnerUsername string          `json:"owner_username"`
	Category      Category        `json:"category"`
	Images        []Image         `json:"images"`
	Similar       []InventoryItem `json:"similar"`
	Likes         int             `json:"likes"`
	Views         int             `json:"views"`
	Comments      int             `json:"comments"`
}

// InventoryItem reduces the detail to the inventory representation, using the
// first image as the thumbnail.
func (d DetailedItem) InventoryItem() InventoryItem {
	item := InventoryItem{ID: d.ID, Name: d.Name, Archived: d.Archived}
	if len(d.Images) > 0 {
		item.ImageID = d.Images[0].ID
		item.ImageURL = d.Images[0].URL
	}
	return item
}

// Comment mirrors /api/comments/ entries.
type Comment struct {
	ID                 int64     `json:"id"`
	Content            string    `json:"content"`
	Date               time.Time `json:"date"`
	User               int64     `json:"user"`
	Item               int64     `json:"item"`
	Username           string    `json:"username"`
	UserFullname       string    `json:"user_fullname"`
	UserProfilePicture string    `json:"user_profile_picture"`
}

// CommentCreation is the body of POST /api/comments/.
type CommentCreation struct {
	User    int64  `json:"user"`
	Item    int64  `json:"item"`
	Content string `json:"content"`
}

// CommentAck is returned after a comment is stored.
type CommentAck struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`
}

// Like is the write-only body of POST /api/likes/.
type Like struct {
	Item int64  `json:"item"`
	User int64  `json:"user"`
	Date string `json:"date"`
}

// OfferCreation is the body of POST /api/offers/.
type OfferCreation struct {
	ItemGiven    int64  `json:"item_given"`
	ItemReceived int64  `json:"item_received"`
	Price        int    `json:"price"`
	Comment      string `json:"comment"`
}

// Offer mirrors an offer returned by the API.
type Offer struct {
	ID           int64  `json:"id"`
	ItemGiven    int64  `json:"item_given"`
	ItemReceived int64  `json:"item_received"`
	Price        int    `json:"price"`
	Comment      string `json:"comment"`
	Accepted     *bool  `json:"accepted"`
}

// ImageAck is returned after an image upload.
type ImageAck struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	Location string `json:"-"`
}

// ItemQuery filters GET /api/items/.
type ItemQuery struct {
	Name     string
	Category int64
	PriceMin int
	PriceMax int
}
