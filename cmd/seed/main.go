// Command seed fills a development database with fake profiles, posts and engagement.
// Likes, comments and views go through the Synchronizer so counters stay consistent.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/anonto42/blaze/backend/internal/engagement"
	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/anonto42/blaze/backend/internal/repositories"
	"github.com/anonto42/blaze/backend/pkg/config"
	"github.com/brianvoe/gofakeit/v6"
)

var tagPool = []string{"go", "databases", "design", "travel", "food", "career", "security", "devops", "writing"}

func main() {
	users := flag.Int("users", 10, "number of profiles to create")
	postsPerUser := flag.Int("posts", 3, "posts per profile")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	cfg := config.Load()
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}

	ctx := context.Background()
	profiles := repositories.NewPostgresProfileRepository(db.Postgres)
	posts := repositories.NewPostgresPostRepository(db.Postgres)
	sync := engagement.NewSynchronizer(engagement.Deps{
		Likes:    repositories.NewPostgresLikeRepository(db.Postgres),
		Comments: repositories.NewPostgresCommentRepository(db.Postgres),
		Views:    repositories.NewPostgresViewRepository(db.Postgres),
		Counters: posts,
	})

	userIDs := make([]string, 0, *users)
	for i := 0; i < *users; i++ {
		username := gofakeit.Username()
		p := &models.Profile{
			UserID:   "seed-" + gofakeit.UUID(),
			Email:    gofakeit.Email(),
			Username: &username,
			FullName: gofakeit.Name(),
			Bio:      gofakeit.Sentence(12),
			Website:  gofakeit.URL(),
		}
		if err := profiles.UpsertProfile(ctx, p); err != nil {
			log.Printf("skip profile %s: %v", username, err)
			continue
		}
		userIDs = append(userIDs, p.UserID)
	}

	var created []*models.Post
	for _, uid := range userIDs {
		for j := 0; j < *postsPerUser; j++ {
			now := time.Now()
			title := gofakeit.Sentence(gofakeit.Number(3, 8))
			content := "<p>" + gofakeit.Paragraph(3, 5, 12, "</p><p>") + "</p>"
			post := &models.Post{
				AuthorID:  uid,
				Title:     title,
				Content:   content,
				Excerpt:   models.DeriveExcerpt("", content),
				Slug:      models.BuildSlug(title, now),
				Tags:      models.NormalizeTags(randomTags()),
				Published: gofakeit.Number(1, 4) > 1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := posts.CreatePost(ctx, post); err != nil {
				log.Printf("skip post %q: %v", title, err)
				continue
			}
			created = append(created, post)
		}
	}

	for _, post := range created {
		if !post.Published {
			continue
		}
		for _, uid := range userIDs {
			if gofakeit.Bool() {
				if _, err := sync.ToggleLike(ctx, post.ID, uid); err != nil {
					log.Printf("like: %v", err)
				}
			}
			if gofakeit.Number(1, 4) == 1 {
				if _, err := sync.PostComment(ctx, post.ID, uid, gofakeit.Sentence(gofakeit.Number(4, 16))); err != nil {
					log.Printf("comment: %v", err)
				}
			}
			viewer := models.Viewer{UserID: uid}
			if _, err := sync.TrackView(ctx, post.ID, viewer); err != nil {
				log.Printf("view: %v", err)
			}
		}
	}

	log.Printf("Seeded %d profiles and %d posts.", len(userIDs), len(created))
}

func randomTags() []string {
	n := gofakeit.Number(1, 4)
	tags := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tags = append(tags, tagPool[gofakeit.Number(0, len(tagPool)-1)])
	}
	return tags
}
