package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tanakak-cyber/meo-sub000/internal/entity"
	"github.com/tanakak-cyber/meo-sub000/internal/gbp"
	"github.com/tanakak-cyber/meo-sub000/internal/repository"
)

// TokenSource exchanges a shop's refresh token for a bearer token.
type TokenSource interface {
	Token(ctx context.Context, shopID uuid.UUID, refreshToken string) (string, error)
}

// GBPClient fetches reviews, media and local posts for one location.
type GBPClient interface {
	ListReviews(ctx context.Context, token, accountID, locationID string) ([]gbp.ReviewData, error)
	ListMedia(ctx context.Context, token, accountID, locationID string) ([]gbp.MediaData, error)
	ListLocalPosts(ctx context.Context, token, accountID, locationID string) ([]gbp.LocalPostData, error)
}

// SyncOptions tunes one sync invocation. SinceDate is a counting filter
// only: items older than it are still reconciled into storage, they just
// do not contribute to the changed/inserted counters.
type SyncOptions struct {
	SinceDate *time.Time
}

// SyncOutcome is the full result of one single-shop sync. Result.Error is
// set (and Snapshot is nil) when the shop's sync failed; the error never
// propagates as a Go error so sibling shops in a batch are unaffected.
type SyncOutcome struct {
	Result   entity.ShopSyncResult
	Snapshot *entity.GbpSnapshot

	// Inserted and Updated feed the batch-level accumulators:
	// inserted counts new review and photo rows, updated counts
	// in-place review updates.
	Inserted int
	Updated  int
}

// SyncService drives the sync pipeline for one shop: token exchange,
// fetch, reconciliation, snapshot.
//
// Reconciliation is deliberately asymmetric, matching the behavior this
// system has always had: reviews are deduplicated by (shop, gbp_review_id)
// with in-place updates, while photos and posts are inserted fresh under
// every snapshot. Do not unify the two without an explicit decision.
type SyncService struct {
	shops     repository.ShopsRepository
	snapshots repository.SnapshotsRepository
	reviews   repository.ReviewsRepository
	photos    repository.PhotosRepository
	posts     repository.PostsRepository
	tokens    TokenSource
	client    GBPClient
}

// NewSyncService wires a SyncService.
func NewSyncService(
	shops repository.ShopsRepository,
	snapshots repository.SnapshotsRepository,
	reviews repository.ReviewsRepository,
	photos repository.PhotosRepository,
	posts repository.PostsRepository,
	tokens TokenSource,
	client GBPClient,
) *SyncService {
	return &SyncService{
		shops:     shops,
		snapshots: snapshots,
		reviews:   reviews,
		photos:    photos,
		posts:     posts,
		tokens:    tokens,
		client:    client,
	}
}

// SyncShop runs one sync for (shop, user). A missing shop is a Go error;
// everything after the shop lookup is recorded on the outcome instead so
// batch callers can keep going.
func (s *SyncService) SyncShop(ctx context.Context, shopID, userID uuid.UUID, opts SyncOptions) (*SyncOutcome, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}

	outcome := &SyncOutcome{
		Result: entity.ShopSyncResult{ShopID: shop.ID, ShopName: shop.Name},
	}

	token, err := s.tokens.Token(ctx, shop.ID, shop.RefreshToken)
	if err != nil {
		return s.recordFailure(outcome, shop, err), nil
	}

	reviews, err := s.client.ListReviews(ctx, token, shop.GBPAccountID, shop.GBPLocationID)
	if err != nil {
		return s.recordFailure(outcome, shop, err), nil
	}

	media, err := s.client.ListMedia(ctx, token, shop.GBPAccountID, shop.GBPLocationID)
	if err != nil {
		return s.recordFailure(outcome, shop, err), nil
	}

	posts, err := s.client.ListLocalPosts(ctx, token, shop.GBPAccountID, shop.GBPLocationID)
	if err != nil {
		return s.recordFailure(outcome, shop, err), nil
	}

	if err := s.reconcile(ctx, shop, userID, reviews, media, posts, opts.SinceDate, outcome); err != nil {
		return s.recordFailure(outcome, shop, err), nil
	}

	log.Printf("sync completed shop=%s reviews_changed=%d photos_inserted=%d posts_synced=%d",
		shop.ID, outcome.Result.ReviewsChanged, outcome.Result.PhotosInserted, outcome.Result.PostsSynced)

	return outcome, nil
}

// reconcile merges fetched data into storage, then records the snapshot.
// The snapshot row is written last so a failed sync leaves no snapshot
// behind; its ID is assigned up front so review, photo and post rows can
// reference it. Every successful sync records exactly one snapshot, even
// when nothing changed.
func (s *SyncService) reconcile(
	ctx context.Context,
	shop *entity.Shop,
	userID uuid.UUID,
	reviews []gbp.ReviewData,
	media []gbp.MediaData,
	posts []gbp.LocalPostData,
	sinceDate *time.Time,
	outcome *SyncOutcome,
) error {
	existing, err := s.reviews.MapByGBPReviewID(ctx, shop.ID)
	if err != nil {
		return fmt.Errorf("load existing reviews: %w", err)
	}

	snapshot := &entity.GbpSnapshot{
		ID:           uuid.New(),
		ShopID:       shop.ID,
		UserID:       userID,
		ReviewsCount: len(reviews),
		PhotosCount:  len(media),
		PostsCount:   len(posts),
	}

	var reviewsInserted, reviewsUpdated int
	for _, data := range reviews {
		countable := isCountable(data.CreatedAt, sinceDate)

		current, ok := existing[data.GBPReviewID]
		if !ok {
			review := &entity.Review{
				ShopID:      shop.ID,
				SnapshotID:  snapshot.ID,
				GBPReviewID: data.GBPReviewID,
				AuthorName:  data.AuthorName,
				Rating:      data.Rating,
				Comment:     data.Comment,
				ReplyText:   data.ReplyText,
				RepliedAt:   data.RepliedAt,
				CreatedAt:   data.CreatedAt,
			}
			if err := s.reviews.Insert(ctx, review); err != nil {
				return fmt.Errorf("insert review %s: %w", data.GBPReviewID, err)
			}
			if countable {
				reviewsInserted++
			}
			continue
		}

		if current.HasSameContent(data.Rating, data.Comment, data.ReplyText, data.RepliedAt) {
			continue
		}
		if err := s.reviews.UpdateMutable(ctx, current.ID, data.Rating, data.Comment, data.ReplyText, data.RepliedAt); err != nil {
			return fmt.Errorf("update review %s: %w", data.GBPReviewID, err)
		}
		if countable {
			reviewsUpdated++
		}
	}

	photos := make([]entity.Photo, 0, len(media))
	var photosInserted int
	for _, item := range media {
		photos = append(photos, entity.Photo{
			ShopID:       shop.ID,
			SnapshotID:   snapshot.ID,
			GBPMediaID:   item.GBPMediaID,
			URL:          item.URL,
			ThumbnailURL: item.ThumbnailURL,
			WidthPx:      item.WidthPx,
			HeightPx:     item.HeightPx,
			CreatedAt:    item.CreatedAt,
		})
		if isCountable(item.CreatedAt, sinceDate) {
			photosInserted++
		}
	}
	if err := s.photos.InsertBatch(ctx, photos); err != nil {
		return fmt.Errorf("insert photos: %w", err)
	}

	localPosts := make([]entity.LocalPost, 0, len(posts))
	var postsSynced int
	for _, item := range posts {
		localPosts = append(localPosts, entity.LocalPost{
			ShopID:     shop.ID,
			SnapshotID: snapshot.ID,
			GBPPostID:  item.GBPPostID,
			Summary:    item.Summary,
			State:      item.State,
			CreatedAt:  item.CreatedAt,
		})
		if isCountable(item.CreatedAt, sinceDate) {
			postsSynced++
		}
	}
	if err := s.posts.InsertBatch(ctx, localPosts); err != nil {
		return fmt.Errorf("insert local posts: %w", err)
	}

	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	outcome.Snapshot = snapshot

	outcome.Result.ReviewsChanged = reviewsInserted + reviewsUpdated
	outcome.Result.PhotosInserted = photosInserted
	outcome.Result.PostsSynced = postsSynced
	outcome.Inserted = reviewsInserted + photosInserted
	outcome.Updated = reviewsUpdated

	return nil
}

func (s *SyncService) recordFailure(outcome *SyncOutcome, shop *entity.Shop, err error) *SyncOutcome {
	log.Printf("sync failed shop=%s error=%v", shop.ID, err)
	outcome.Result.Error = err.Error()
	return outcome
}

// isCountable applies the since-date post-filter. It gates counting only;
// fetching and reconciliation always cover the full range Google returns.
func isCountable(createdAt time.Time, sinceDate *time.Time) bool {
	if sinceDate == nil {
		return true
	}
	return !createdAt.Before(*sinceDate)
}
