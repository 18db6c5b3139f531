package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// postViewQuery joins the author's name and aggregates the like set.
// The %s placeholder takes an optional WHERE clause.
const postViewQuery = `
	SELECT p.id::text AS id,
	       p.text,
	       p.image_url,
	       p.created_at,
	       p.user_id::text AS user_id,
	       u.name AS user_name,
	       COALESCE(
	           ARRAY_AGG(l.user_id::text ORDER BY l.created_at, l.user_id) FILTER (WHERE l.user_id IS NOT NULL),
	           '{}'
	       ) AS likes
	FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN post_likes l ON l.post_id = p.id
	%s
	GROUP BY p.id, u.name
	ORDER BY p.created_at DESC, p.id DESC`

type postViewRow struct {
	ID        string         `db:"id"`
	Text      string         `db:"text"`
	ImageURL  string         `db:"image_url"`
	CreatedAt time.Time      `db:"created_at"`
	UserID    string         `db:"user_id"`
	UserName  string         `db:"user_name"`
	Likes     pq.StringArray `db:"likes"`
}

func (row postViewRow) view() types.PostView {
	likes := []string(row.Likes)
	if likes == nil {
		likes = []string{}
	}
	return types.PostView{
		ID:        row.ID,
		Text:      row.Text,
		ImageURL:  row.ImageURL,
		CreatedAt: row.CreatedAt,
		Likes:     likes,
		UserID:    row.UserID,
		UserName:  row.UserName,
	}
}

// PostRepository handles persistence for posts and their like sets.
type PostRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: sqlx.NewDb(db, "postgres")}
}

func (r *PostRepository) List(ctx context.Context) ([]types.PostView, error) {
	return r.selectViews(ctx, fmt.Sprintf(postViewQuery, ""))
}

func (r *PostRepository) ListByAuthor(ctx context.Context, userID string) ([]types.PostView, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []types.PostView{}, nil
	}
	return r.selectViews(ctx, fmt.Sprintf(postViewQuery, "WHERE p.user_id = $1"), userID)
}

func (r *PostRepository) Get(ctx context.Context, id string) (types.PostView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.PostView{}, ErrNotFound
	}

	var row postViewRow
	err := r.db.GetContext(ctx, &row, fmt.Sprintf(postViewQuery, "WHERE p.id = $1"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.PostView{}, ErrNotFound
		}
		return types.PostView{}, err
	}
	return row.view(), nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	post.Likes = []string{}

	const query = `
		INSERT INTO posts (id, user_id, text, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		post.ID,
		post.UserID,
		post.Text,
		post.ImageURL,
		post.CreatedAt,
	); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

// UpdateText replaces the text of a post owned by userID. An empty text
// leaves the stored text unchanged. The ownership check and the write run
// under a row lock in a single transaction.
func (r *PostRepository) UpdateText(ctx context.Context, id, userID, text string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockOwnedPost(ctx, tx, id, userID); err != nil {
			return err
		}
		if text == "" {
			return nil
		}

		const query = `UPDATE posts SET text = $1 WHERE id = $2`
		_, err := tx.ExecContext(ctx, query, text, id)
		return err
	})
}

// Delete removes a post owned by userID and returns the removed record.
func (r *PostRepository) Delete(ctx context.Context, id, userID string) (types.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Post{}, ErrNotFound
	}

	var deleted types.Post
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		post, err := lockOwnedPost(ctx, tx, id, userID)
		if err != nil {
			return err
		}

		const query = `DELETE FROM posts WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return err
		}
		deleted = post
		return nil
	})
	if err != nil {
		return types.Post{}, err
	}
	return deleted, nil
}

// ToggleLike flips userID's membership in the post's like set and reports
// whether the user likes the post afterwards.
func (r *PostRepository) ToggleLike(ctx context.Context, id, userID string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrNotFound
	}

	var liked bool
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		const lockQuery = `SELECT 1 FROM posts WHERE id = $1 FOR SHARE`
		if err := tx.QueryRowContext(ctx, lockQuery, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const unlikeQuery = `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
		result, err := tx.ExecContext(ctx, unlikeQuery, id, userID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected > 0 {
			liked = false
			return nil
		}

		const likeQuery = `
			INSERT INTO post_likes (post_id, user_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (post_id, user_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, likeQuery, id, userID); err != nil {
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

func (r *PostRepository) selectViews(ctx context.Context, query string, args ...any) ([]types.PostView, error) {
	var rows []postViewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	views := make([]types.PostView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}

func (r *PostRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func lockOwnedPost(ctx context.Context, tx *sqlx.Tx, id, userID string) (types.Post, error) {
	const query = `
		SELECT id::text, user_id::text, text, image_url, created_at
		FROM posts
		WHERE id = $1
		FOR UPDATE`
	var post types.Post
	err := tx.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.UserID,
		&post.Text,
		&post.ImageURL,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	if post.UserID != userID {
		return types.Post{}, ErrNotOwner
	}
	return post, nil
}
