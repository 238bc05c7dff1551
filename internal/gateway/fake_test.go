package gateway

import (
	"context"
	"io"
	"sync"

	"github.com/five82/swapp/internal/market"
)

type fakeAPI struct {
	mu sync.Mutex

	items    map[int64]market.DetailedItem
	users    map[string]market.UserProfile
	comments map[int64][]market.Comment
	search   []market.DetailedItem

	itemErr, userErr, commentsErr error
	archiveErr, likeErr, offerErr error
	uploadErr                     error

	archived  []int64
	restored  []int64
	likes     []market.Like
	posted    []market.CommentCreation
	offers    []market.OfferCreation
	queries   []market.ItemQuery
	uploads   []string
	uploadLen int
}

func (f *fakeAPI) FetchUser(_ context.Context, username string) (*market.UserProfile, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, &market.APIError{Method: "GET", Path: "/api/users/" + username + "/", Status: 404}
	}
	return &u, nil
}

func (f *fakeAPI) FetchItems(_ context.Context, q market.ItemQuery) ([]market.DetailedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.search, nil
}

func (f *fakeAPI) FetchDetailedItem(_ context.Context, id int64) (*market.DetailedItem, error) {
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	it, ok := f.items[id]
	if !ok {
		return nil, &market.APIError{Method: "GET", Path: "/api/items/", Status: 404}
	}
	return &it, nil
}

func (f *fakeAPI) ArchiveItem(_ context.Context, id int64) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, id)
	return nil
}

func (f *fakeAPI) RestoreItem(_ context.Context, id int64) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.restored = append(f.restored, id)
	return nil
}

func (f *fakeAPI) FetchComments(_ context.Context, itemID int64) ([]market.Comment, error) {
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return f.comments[itemID], nil
}

func (f *fakeAPI) AddComment(_ context.Context, c market.CommentCreation) (market.CommentAck, error) {
	f.posted = append(f.posted, c)
	return market.CommentAck{ID: int64(len(f.posted))}, nil
}

func (f *fakeAPI) Like(_ context.Context, like market.Like) error {
	if f.likeErr != nil {
		return f.likeErr
	}
	f.likes = append(f.likes, like)
	return nil
}

func (f *fakeAPI) CreateOffer(_ context.Context, o market.OfferCreation) (market.Offer, error) {
	if f.offerErr != nil {
		return market.Offer{}, f.offerErr
	}
	f.offers = append(f.offers, o)
	return market.Offer{ID: 7, ItemGiven: o.ItemGiven, ItemReceived: o.ItemReceived, Price: o.Price, Comment: o.Comment}, nil
}

func (f *fakeAPI) UploadImage(_ context.Context, filename string, r io.Reader) (market.ImageAck, error) {
	if f.uploadErr != nil {
		return market.ImageAck{}, f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return market.ImageAck{}, err
	}
	f.uploads = append(f.uploads, filename)
	f.uploadLen = len(data)
	return market.ImageAck{ID: 3, URL: "/media/items/" + filename, Location: "/api/images/3/"}, nil
}
