package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/swapp/internal/broadcast"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

// ItemsAPI is the part of the marketplace API the items gateway needs.
type ItemsAPI interface {
	FetchUser(ctx context.Context, username string) (*market.UserProfile, error)
	FetchItems(ctx context.Context, query market.ItemQuery) ([]market.DetailedItem, error)
	FetchDetailedItem(ctx context.Context, id int64) (*market.DetailedItem, error)
	ArchiveItem(ctx context.Context, id int64) error
	RestoreItem(ctx context.Context, id int64) error
	FetchComments(ctx context.Context, itemID int64) ([]market.Comment, error)
	AddComment(ctx context.Context, comment market.CommentCreation) (market.CommentAck, error)
	Like(ctx context.Context, like market.Like) error
}

// InventoryEntry is an inventory item with its vetted thumbnail.
type InventoryEntry struct {
	market.InventoryItem
	Image TrustedURL
}

// CommentEntry is a comment with its vetted author picture.
type CommentEntry struct {
	market.Comment
	Picture TrustedURL
}

// ItemDetail is everything the item modal shows. Owner and comment failures
// are reported separately so the item itself still renders.
type ItemDetail struct {
	Item         market.DetailedItem
	Images       []TrustedURL
	Similar      []InventoryEntry
	Owner        *market.UserProfile
	OwnerPicture TrustedURL
	OwnerItems   []InventoryEntry
	Comments     []CommentEntry
	OwnerErr     error
	CommentsErr  error
}

// Items fronts every item-related call and the item selection slots.
type Items struct {
	api    ItemsAPI
	policy *ImagePolicy
	logger *slog.Logger
	now    func() time.Time

	itemSelected     broadcast.Slot[market.DetailedItem]
	commentsSelected broadcast.Slot[[]market.Comment]
	ownerSelected    broadcast.Slot[market.UserProfile]
}

// NewItems builds an Items gateway. A nil policy trusts nothing.
func NewItems(api ItemsAPI, policy *ImagePolicy, logger *slog.Logger) *Items {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if policy == nil {
		policy = NewImagePolicy(nil, nil, logger)
	}
	return &Items{api: api, policy: policy, logger: logger, now: time.Now}
}

// Policy exposes the image policy for views that vet URLs themselves.
func (g *Items) Policy() *ImagePolicy { return g.policy }

// ItemSelected carries the item last opened or updated in the detail modal.
func (g *Items) ItemSelected() *broadcast.Slot[market.DetailedItem] { return &g.itemSelected }

// CommentsSelected carries the comment list of the item last opened.
func (g *Items) CommentsSelected() *broadcast.Slot[[]market.Comment] { return &g.commentsSelected }

// OwnerSelected carries the owner profile the user asked to see.
func (g *Items) OwnerSelected() *broadcast.Slot[market.UserProfile] { return &g.ownerSelected }

// SelectItem replaces any unread item selection.
func (g *Items) SelectItem(item market.DetailedItem) { g.itemSelected.Publish(item) }

// SelectComments replaces any unread comment selection.
func (g *Items) SelectComments(comments []market.Comment) { g.commentsSelected.Publish(comments) }

// SelectOwner replaces any unread owner selection.
func (g *Items) SelectOwner(owner market.UserProfile) { g.ownerSelected.Publish(owner) }

// DetailedItem fetches one item with its images and similar items.
func (g *Items) DetailedItem(ctx context.Context, id int64) (market.DetailedItem, error) {
	item, err := g.api.FetchDetailedItem(ctx, id)
	if err != nil {
		g.logger.Warn("fetch item failed", "item_id", id, "error", err)
		return market.DetailedItem{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return *item, nil
}

// User fetches a public profile by username.
func (g *Items) User(ctx context.Context, username string) (market.UserProfile, error) {
	user, err := g.api.FetchUser(ctx, username)
	if err != nil {
		g.logger.Warn("fetch user failed", "username", username, "error", err)
		return market.UserProfile{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return *user, nil
}

// Comments fetches the comments of an item.
func (g *Items) Comments(ctx context.Context, itemID int64) ([]market.Comment, error) {
	comments, err := g.api.FetchComments(ctx, itemID)
	if err != nil {
		g.logger.Warn("fetch comments failed", "item_id", itemID, "error", err)
		return nil, fmt.Errorf("get comments for item %d: %w", itemID, err)
	}
	return comments, nil
}

// AddComment validates and posts a comment. The content is trimmed.
func (g *Items) AddComment(ctx context.Context, c market.CommentCreation) (market.CommentAck, error) {
	c.Content = strings.TrimSpace(c.Content)
	switch {
	case c.Item == 0:
		return market.CommentAck{}, ErrNotLoaded
	case c.User == 0:
		return market.CommentAck{}, session.ErrNotLoggedIn
	case c.Content == "":
		return market.CommentAck{}, ErrEmptyComment
	}
	ack, err := g.api.AddComment(ctx, c)
	if err != nil {
		g.logger.Warn("add comment failed", "item_id", c.Item, "error", err)
		return market.CommentAck{}, fmt.Errorf("add comment: %w", err)
	}
	g.logger.Info("comment added", "item_id", c.Item, "comment_id", ack.ID)
	return ack, nil
}

// Archive hides an item. Callers flip their local flag only on success.
func (g *Items) Archive(ctx context.Context, id int64) error {
	if id == 0 {
		return ErrNotLoaded
	}
	if err := g.api.ArchiveItem(ctx, id); err != nil {
		g.logger.Warn("archive item failed", "item_id", id, "error", err)
		return fmt.Errorf("archive item %d: %w", id, err)
	}
	g.logger.Info("item archived", "item_id", id)
	return nil
}

// Restore reverses Archive.
func (g *Items) Restore(ctx context.Context, id int64) error {
	if id == 0 {
		return ErrNotLoaded
	}
	if err := g.api.RestoreItem(ctx, id); err != nil {
		g.logger.Warn("restore item failed", "item_id", id, "error", err)
		return fmt.Errorf("restore item %d: %w", id, err)
	}
	g.logger.Info("item restored", "item_id", id)
	return nil
}

// Like records that userID likes itemID now.
func (g *Items) Like(ctx context.Context, itemID, userID int64) error {
	switch {
	case itemID == 0:
		return ErrNotLoaded
	case userID == 0:
		return session.ErrNotLoggedIn
	}
	like := market.Like{Item: itemID, User: userID, Date: g.now().UTC().Format(time.RFC3339)}
	if err := g.api.Like(ctx, like); err != nil {
		g.logger.Warn("like failed", "item_id", itemID, "error", err)
		return fmt.Errorf("like item %d: %w", itemID, err)
	}
	return nil
}

// Search lists items matching q. The name is trimmed and an inverted
// price range is swapped.
func (g *Items) Search(ctx context.Context, q market.ItemQuery) ([]market.DetailedItem, error) {
	q.Name = strings.TrimSpace(q.Name)
	if q.PriceMin > 0 && q.PriceMax > 0 && q.PriceMin > q.PriceMax {
		q.PriceMin, q.PriceMax = q.PriceMax, q.PriceMin
	}
	items, err := g.api.FetchItems(ctx, q)
	if err != nil {
		g.logger.Warn("search failed", "name", q.Name, "error", err)
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

// OpenDetail loads an item, then its owner and comments concurrently. Only
// the item fetch is fatal.
func (g *Items) OpenDetail(ctx context.Context, id int64) (ItemDetail, error) {
	item, err := g.DetailedItem(ctx, id)
	if err != nil {
		return ItemDetail{}, err
	}

	detail := ItemDetail{
		Item:    item,
		Images:  make([]TrustedURL, 0, len(item.Images)),
		Similar: g.Entries(item.Similar),
	}
	for _, img := range item.Images {
		detail.Images = append(detail.Images, g.policy.Trust(img.URL))
	}

	// Owner and comment failures are partial: each goroutine records its
	// error in detail and returns nil, so one failure never cancels the
	// other fetch and Wait has nothing to report.
	var (
		owner    market.UserProfile
		comments []market.Comment
		group    errgroup.Group
	)
	if item.OwnerUsername != "" {
		group.Go(func() error {
			owner, detail.OwnerErr = g.User(ctx, item.OwnerUsername)
			return nil
		})
	}
	group.Go(func() error {
		comments, detail.CommentsErr = g.Comments(ctx, item.ID)
		return nil
	})
	_ = group.Wait()

	if item.OwnerUsername != "" && detail.OwnerErr == nil {
		detail.Owner = &owner
		detail.OwnerPicture = g.policy.Trust(owner.ProfilePictureURL)
		for _, e := range g.Entries(owner.Items) {
			if e.ID != item.ID {
				detail.OwnerItems = append(detail.OwnerItems, e)
			}
		}
	}
	if detail.CommentsErr == nil {
		detail.Comments = g.CommentEntries(comments)
	}
	return detail, nil
}

// Entries vets the thumbnails of items.
func (g *Items) Entries(items []market.InventoryItem) []InventoryEntry {
	out := make([]InventoryEntry, 0, len(items))
	for _, it := range items {
		out = append(out, InventoryEntry{InventoryItem: it, Image: g.policy.Trust(it.ImageURL)})
	}
	return out
}

// CommentEntries vets the author pictures of comments.
func (g *Items) CommentEntries(comments []market.Comment) []CommentEntry {
	out := make([]CommentEntry, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentEntry{Comment: c, Picture: g.policy.Trust(c.UserProfilePicture)})
	}
	return out
}
