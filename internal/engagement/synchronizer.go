// Package engagement keeps the like, comment and view counters of a post in step with
// the relation rows behind them. Every view that shows counters goes through a
// Synchronizer instead of touching the repositories directly.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/blaze/backend/internal/events"
	"github.com/anonto42/blaze/backend/internal/metrics"
	"github.com/anonto42/blaze/backend/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrSignInRequired = errors.New("sign in required")
	ErrEmptyComment   = errors.New("comment is empty")
	ErrInFlight       = errors.New("previous request for this action is still in progress")
)

// LikeStore is the like side of the backend
type LikeStore interface {
	HasUserLikedPost(ctx context.Context, postID, userID string) (bool, error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	ToggleLike(ctx context.Context, postID, userID string) (models.LikeState, error)
}

// CommentStore is the comment side of the backend
type CommentStore interface {
	AddComment(ctx context.Context, comment *models.Comment) (int64, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
}

// ViewStore counts views; dedup happens inside the store
type ViewStore interface {
	IncrementPostViews(ctx context.Context, postID string, viewer models.Viewer) (int64, bool, error)
}

// CounterStore repairs aggregates from relation rows
type CounterStore interface {
	ReconcileCounters(ctx context.Context, postID string) (models.PostCounters, error)
}

// Deps bundles what a Synchronizer talks to. Guard and Publisher are optional.
type Deps struct {
	Likes     LikeStore
	Comments  CommentStore
	Views     ViewStore
	Counters  CounterStore
	Guard     Guard
	Publisher events.Publisher
	Now       func() time.Time
}

// Synchronizer is the single entry point for counter-affecting actions
type Synchronizer struct {
	likes     LikeStore
	comments  CommentStore
	views     ViewStore
	counters  CounterStore
	guard     Guard
	publisher events.Publisher
	now       func() time.Time
	tracer    trace.Tracer
}

func NewSynchronizer(deps Deps) *Synchronizer {
	s := &Synchronizer{
		likes:     deps.Likes,
		comments:  deps.Comments,
		views:     deps.Views,
		counters:  deps.Counters,
		guard:     deps.Guard,
		publisher: deps.Publisher,
		now:       deps.Now,
		tracer:    otel.Tracer("github.com/anonto42/blaze/backend/internal/engagement"),
	}
	if s.guard == nil {
		s.guard = NewMemoryGuard()
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// LoadLikeState reports whether userID likes postID. Anonymous callers get false without a
// backend call, and backend failures are logged and read as false.
func (s *Synchronizer) LoadLikeState(ctx context.Context, postID, userID string) bool {
	if userID == "" {
		return false
	}
	ctx, span := s.start(ctx, "LoadLikeState", postID)
	defer span.End()

	liked, err := s.likes.HasUserLikedPost(ctx, postID, userID)
	if err != nil {
		s.background(span, "load_like_state", fmt.Errorf("check like status of post %s: %w", postID, err))
		return false
	}
	return liked
}

// LoadLikeStates is LoadLikeState for a whole listing. Posts missing from the result are not
// liked; anonymous callers and backend failures yield an empty map.
func (s *Synchronizer) LoadLikeStates(ctx context.Context, postIDs []string, userID string) map[string]bool {
	if userID == "" || len(postIDs) == 0 {
		return map[string]bool{}
	}
	ctx, span := s.tracer.Start(ctx, "engagement.LoadLikeStates", trace.WithAttributes(attribute.Int("posts", len(postIDs))))
	defer span.End()

	liked, err := s.likes.LikedPostIDs(ctx, userID, postIDs)
	if err != nil {
		s.background(span, "load_like_state", fmt.Errorf("check like status of %d posts: %w", len(postIDs), err))
		return map[string]bool{}
	}
	return liked
}

// ToggleLike likes the post if the user does not like it yet, and unlikes it otherwise.
// The returned state comes from the backend after the change was committed.
func (s *Synchronizer) ToggleLike(ctx context.Context, postID, userID string) (models.LikeState, error) {
	if userID == "" {
		return models.LikeState{}, ErrSignInRequired
	}
	ctx, span := s.start(ctx, "ToggleLike", postID)
	defer span.End()

	release, err := s.acquire(ctx, "like", postID, userID)
	if err != nil {
		return models.LikeState{}, s.fail(span, err)
	}
	defer release()

	state, err := s.likes.ToggleLike(ctx, postID, userID)
	if err != nil {
		return models.LikeState{}, s.fail(span, fmt.Errorf("toggle like on post %s: %w", postID, err))
	}

	kind, label := events.PostLiked, "liked"
	if !state.IsLiked {
		kind, label = events.PostUnliked, "unliked"
	}
	metrics.LikeToggles.WithLabelValues(label).Inc()
	span.SetAttributes(attribute.Bool("liked", state.IsLiked), attribute.Int64("likes_count", state.LikesCount))
	s.publish(ctx, span, events.Activity{Type: kind, PostID: postID, UserID: userID, Count: state.LikesCount})
	return state, nil
}

// PostComment appends a comment and returns the new count along with the refreshed thread.
// Blank text is rejected before the backend is called. A failed thread refresh is logged and
// leaves Thread empty; the comment itself has been stored at that point.
func (s *Synchronizer) PostComment(ctx context.Context, postID, userID, text string) (*models.CommentResult, error) {
	if userID == "" {
		return nil, ErrSignInRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	ctx, span := s.start(ctx, "PostComment", postID)
	defer span.End()

	release, err := s.acquire(ctx, "comment", postID, userID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	comment := &models.Comment{
		PostID:    postID,
		AuthorID:  userID,
		Content:   text,
		CreatedAt: s.now(),
	}
	count, err := s.comments.AddComment(ctx, comment)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("add comment to post %s: %w", postID, err))
	}
	metrics.CommentsPosted.Inc()
	s.publish(ctx, span, events.Activity{Type: events.CommentPosted, PostID: postID, UserID: userID, Count: count})

	result := &models.CommentResult{Comment: comment, CommentsCount: count, Thread: []models.Comment{}}
	thread, err := s.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		s.background(span, "refresh_comments", fmt.Errorf("refresh comments of post %s: %w", postID, err))
		return result, nil
	}
	result.Thread = thread
	return result, nil
}

// TrackView counts one page load of a post and returns the views count the backend reports.
// Repeated calls for the same viewer are absorbed by the backend.
func (s *Synchronizer) TrackView(ctx context.Context, postID string, viewer models.Viewer) (int64, error) {
	ctx, span := s.start(ctx, "TrackView", postID)
	defer span.End()

	count, counted, err := s.views.IncrementPostViews(ctx, postID, viewer)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("track view of post %s: %w", postID, err))
	}
	metrics.ViewsTracked.WithLabelValues(strconv.FormatBool(counted)).Inc()
	span.SetAttributes(attribute.Bool("counted", counted), attribute.Int64("views_count", count))
	if counted {
		s.publish(ctx, span, events.Activity{Type: events.PostViewed, PostID: postID, UserID: viewer.UserID, Count: count})
	}
	return count, nil
}

// Comments returns the thread of a post, oldest first
func (s *Synchronizer) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	comments, err := s.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments of post %s: %w", postID, err)
	}
	return comments, nil
}

// Reconcile recomputes the like and comment counters from the stored rows
func (s *Synchronizer) Reconcile(ctx context.Context, postID string) (models.PostCounters, error) {
	ctx, span := s.start(ctx, "Reconcile", postID)
	defer span.End()

	counters, err := s.counters.ReconcileCounters(ctx, postID)
	if err != nil {
		return models.PostCounters{}, s.fail(span, fmt.Errorf("reconcile counters of post %s: %w", postID, err))
	}
	return counters, nil
}

func (s *Synchronizer) acquire(ctx context.Context, action, postID, userID string) (func(), error) {
	release, ok, err := s.guard.Acquire(ctx, action+":"+postID+":"+userID)
	if err != nil {
		return nil, fmt.Errorf("acquire %s guard: %w", action, err)
	}
	if !ok {
		metrics.InFlightRejections.WithLabelValues(action).Inc()
		return nil, ErrInFlight
	}
	return release, nil
}

func (s *Synchronizer) publish(ctx context.Context, span trace.Span, a events.Activity) {
	a.At = s.now()
	if err := s.publisher.Publish(ctx, a); err != nil {
		s.background(span, "publish_activity", fmt.Errorf("publish %s for post %s: %w", a.Type, a.PostID, err))
	}
}

func (s *Synchronizer) start(ctx context.Context, op, postID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "engagement."+op, trace.WithAttributes(attribute.String("post.id", postID)))
}

func (s *Synchronizer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *Synchronizer) background(span trace.Span, op string, err error) {
	span.RecordError(err)
	metrics.BackgroundFailures.WithLabelValues(op).Inc()
	log.Printf("engagement: %v", err)
}
