package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	json "github.com/goccy/go-json"
	"github.com/mazelab/mazelab/internal/domain"
	"github.com/mazelab/mazelab/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // serializes session appends to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT 'manual',
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		media_json TEXT NOT NULL DEFAULT '[]',
		author_json TEXT NOT NULL DEFAULT '{}',
		category TEXT NOT NULL DEFAULT '',
		tags_json TEXT NOT NULL DEFAULT '[]',
		liked_count INTEGER NOT NULL DEFAULT 0,
		favorite_count INTEGER NOT NULL DEFAULT 0,
		comment_count INTEGER NOT NULL DEFAULT 0,
		is_public INTEGER NOT NULL DEFAULT 1,
		deleted_at INTEGER,
		owner_id TEXT NOT NULL DEFAULT '',
		library_type TEXT NOT NULL DEFAULT 'personal',
		experiment_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_library ON articles(library_type, experiment_id);
	CREATE INDEX IF NOT EXISTS idx_articles_deleted ON articles(deleted_at) WHERE deleted_at IS NOT NULL;

	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		experiment_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		clicked INTEGER NOT NULL,
		dwell_time REAL NOT NULL DEFAULT 0,
		scroll_depth REAL NOT NULL DEFAULT 0,
		liked INTEGER NOT NULL DEFAULT 0,
		favorited INTEGER NOT NULL DEFAULT 0,
		comment TEXT NOT NULL DEFAULT '',
		highlights_json TEXT NOT NULL DEFAULT '[]',
		timestamp INTEGER NOT NULL,
		article_context_json TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_experiment ON interactions(experiment_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		experiment_id TEXT NOT NULL,
		strategy_json TEXT,
		articles_json TEXT NOT NULL DEFAULT '[]',
		timestamp INTEGER NOT NULL,
		round_index INTEGER NOT NULL,
		debug_json TEXT,
		UNIQUE(experiment_id, round_index)
	);

	CREATE TABLE IF NOT EXISTS experiments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		mode TEXT NOT NULL DEFAULT 'solo',
		started_at INTEGER NOT NULL,
		strategy_prompt TEXT NOT NULL DEFAULT '',
		content_prompt TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_experiments_user ON experiments(user_id);

	CREATE TABLE IF NOT EXISTS config (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---- articles ----

var articleColumns = []string{
	"id", "source", "title", "content", "description", "summary",
	"media_json", "author_json", "category", "tags_json",
	"liked_count", "favorite_count", "comment_count",
	"is_public", "deleted_at", "owner_id", "library_type", "experiment_id", "created_at",
}

// SaveArticle inserts or replaces an article.
func (s *SQLiteStore) SaveArticle(ctx context.Context, a *domain.Article) error {
	media, err := json.Marshal(a.Media)
	if err != nil {
		return fmt.Errorf("marshal media: %w", err)
	}
	author, err := json.Marshal(a.Author)
	if err != nil {
		return fmt.Errorf("marshal author: %w", err)
	}
	tags, err := json.Marshal(a.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	var deletedAt any
	if a.DeletedAt != nil {
		deletedAt = a.DeletedAt.UnixMilli()
	}

	query, args, err := sq.Insert("articles").
		Columns(articleColumns...).
		Values(a.ID, string(a.Source), a.Title, a.Content, a.Description, a.Summary,
			string(media), string(author), a.Category, string(tags),
			a.LikedCount, a.FavoriteCount, a.CommentCount,
			boolToInt(a.IsPublic), deletedAt, a.OwnerID, string(a.LibraryType), a.ExperimentID, a.CreatedAt.UnixMilli()).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			content = excluded.content,
			description = excluded.description,
			summary = excluded.summary,
			media_json = excluded.media_json,
			author_json = excluded.author_json,
			category = excluded.category,
			tags_json = excluded.tags_json,
			liked_count = excluded.liked_count,
			favorite_count = excluded.favorite_count,
			comment_count = excluded.comment_count,
			is_public = excluded.is_public,
			owner_id = excluded.owner_id,
			library_type = excluded.library_type,
			experiment_id = excluded.experiment_id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build article upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	return nil
}

// GetArticle retrieves an article by id.
func (s *SQLiteStore) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	query, args, err := sq.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article query: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return a, nil
}

// ListArticles returns articles matching the filter, newest first.
func (s *SQLiteStore) ListArticles(ctx context.Context, f ArticleFilter) ([]domain.Article, error) {
	b := sq.Select(articleColumns...).From("articles").OrderBy("created_at DESC")
	if f.LibraryType != "" {
		b = b.Where(sq.Eq{"library_type": string(f.LibraryType)})
	}
	if f.ExperimentID != "" {
		b = b.Where(sq.Eq{"experiment_id": f.ExperimentID})
	}
	if f.OwnerID != "" {
		b = b.Where(sq.Eq{"owner_id": f.OwnerID})
	}
	if f.VisibleOnly {
		b = b.Where(sq.Eq{"is_public": 1})
	}
	if f.DeletedOnly {
		b = b.Where("deleted_at IS NOT NULL")
	} else {
		b = b.Where("deleted_at IS NULL")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}
	return out, nil
}

// ArticlesByIDs returns existing, non-deleted articles in the given id order.
func (s *SQLiteStore) ArticlesByIDs(ctx context.Context, ids []string) ([]domain.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sq.Select(articleColumns...).From("articles").
		Where(sq.Eq{"id": ids}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles-by-ids query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Article, len(ids))
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		byID[a.ID] = *a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}

	out := make([]domain.Article, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// SoftDeleteArticle marks an article deleted.
func (s *SQLiteStore) SoftDeleteArticle(ctx context.Context, id string) error {
	return s.setDeletedAt(ctx, id, sql.NullInt64{Int64: time.Now().UnixMilli(), Valid: true})
}

// RestoreArticle clears an article's soft-delete mark.
func (s *SQLiteStore) RestoreArticle(ctx context.Context, id string) error {
	return s.setDeletedAt(ctx, id, sql.NullInt64{})
}

func (s *SQLiteStore) setDeletedAt(ctx context.Context, id string, deletedAt sql.NullInt64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE articles SET deleted_at = ? WHERE id = ?`, deletedAt, id)
	if err != nil {
		return fmt.Errorf("update deleted_at: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanArticle(row interface{ Scan(...any) error }) (*domain.Article, error) {
	var (
		a                   domain.Article
		source, libraryType string
		media, author, tags string
		isPublic            int
		deletedAt           sql.NullInt64
		createdAt           int64
	)
	err := row.Scan(
		&a.ID, &source, &a.Title, &a.Content, &a.Description, &a.Summary,
		&media, &author, &a.Category, &tags,
		&a.LikedCount, &a.FavoriteCount, &a.CommentCount,
		&isPublic, &deletedAt, &a.OwnerID, &libraryType, &a.ExperimentID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	a.Source = domain.ArticleSource(source)
	a.LibraryType = domain.LibraryType(libraryType)
	a.IsPublic = isPublic != 0
	a.CreatedAt = time.UnixMilli(createdAt)
	if deletedAt.Valid {
		t := time.UnixMilli(deletedAt.Int64)
		a.DeletedAt = &t
	}
	if err := json.Unmarshal([]byte(media), &a.Media); err != nil {
		return nil, fmt.Errorf("unmarshal media: %w", err)
	}
	if err := json.Unmarshal([]byte(author), &a.Author); err != nil {
		return nil, fmt.Errorf("unmarshal author: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &a, nil
}

// ---- interactions ----

// AppendInteraction persists one interaction row.
func (s *SQLiteStore) AppendInteraction(ctx context.Context, i *domain.Interaction) error {
	highlights, err := json.Marshal(i.Highlights)
	if err != nil {
		return fmt.Errorf("marshal highlights: %w", err)
	}
	articleCtx, err := json.Marshal(i.ArticleContext)
	if err != nil {
		return fmt.Errorf("marshal article context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, user_id, article_id, experiment_id, session_id,
			clicked, dwell_time, scroll_depth, liked, favorited, comment,
			highlights_json, timestamp, article_context_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.ArticleID, i.ExperimentID, i.SessionID,
		boolToInt(i.Clicked), i.DwellTime, i.ScrollDepth,
		boolToInt(i.Liked), boolToInt(i.Favorited), i.Comment,
		string(highlights), i.Timestamp.UnixMilli(), string(articleCtx),
	)
	if err != nil {
		if shared.IsSQLiteConflictError(err) {
			return fmt.Errorf("append interaction: database busy: %w", err)
		}
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// ListInteractionsByExperiment returns all rows for an experiment in
// insertion order.
func (s *SQLiteStore) ListInteractionsByExperiment(ctx context.Context, experimentID string) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, article_id, experiment_id, session_id,
			clicked, dwell_time, scroll_depth, liked, favorited, comment,
			highlights_json, timestamp, article_context_json
		FROM interactions WHERE experiment_id = ? ORDER BY rowid`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Interaction
	for rows.Next() {
		var (
			i                      domain.Interaction
			clicked, liked, fav    int
			highlights, articleCtx string
			ts                     int64
		)
		if err := rows.Scan(&i.ID, &i.UserID, &i.ArticleID, &i.ExperimentID, &i.SessionID,
			&clicked, &i.DwellTime, &i.ScrollDepth, &liked, &fav, &i.Comment,
			&highlights, &ts, &articleCtx); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		i.Clicked = clicked != 0
		i.Liked = liked != 0
		i.Favorited = fav != 0
		i.Timestamp = time.UnixMilli(ts)
		if err := json.Unmarshal([]byte(highlights), &i.Highlights); err != nil {
			return nil, fmt.Errorf("unmarshal highlights: %w", err)
		}
		if err := json.Unmarshal([]byte(articleCtx), &i.ArticleContext); err != nil {
			return nil, fmt.Errorf("unmarshal article context: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}
	return out, nil
}

// ---- sessions ----

// AppendSession persists one immutable session batch. The UNIQUE constraint
// on (experiment_id, round_index) rejects concurrent writers that derived
// the same round number.
func (s *SQLiteStore) AppendSession(ctx context.Context, sess *domain.Session) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	var strategy any
	if sess.Strategy != nil {
		raw, err := json.Marshal(sess.Strategy)
		if err != nil {
			return fmt.Errorf("marshal strategy: %w", err)
		}
		strategy = string(raw)
	}

	articles, err := json.Marshal(sess.Articles)
	if err != nil {
		return fmt.Errorf("marshal session articles: %w", err)
	}

	var debug any
	if sess.Debug != nil {
		raw, err := json.Marshal(sess.Debug)
		if err != nil {
			return fmt.Errorf("marshal debug trace: %w", err)
		}
		debug = string(raw)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, experiment_id, strategy_json, articles_json, timestamp, round_index, debug_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.SessionID, sess.ExperimentID, strategy, string(articles),
		sess.Timestamp.UnixMilli(), sess.RoundIndex, debug,
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

// ListSessionsByExperiment returns sessions ordered by roundIndex.
func (s *SQLiteStore) ListSessionsByExperiment(ctx context.Context, experimentID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, experiment_id, strategy_json, articles_json, timestamp, round_index, debug_json
		FROM sessions WHERE experiment_id = ? ORDER BY round_index`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var (
			sess            domain.Session
			strategy, debug sql.NullString
			articles        string
			ts              int64
		)
		if err := rows.Scan(&sess.SessionID, &sess.ExperimentID, &strategy, &articles, &ts, &sess.RoundIndex, &debug); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sess.Timestamp = time.UnixMilli(ts)
		if err := json.Unmarshal([]byte(articles), &sess.Articles); err != nil {
			return nil, fmt.Errorf("unmarshal session articles: %w", err)
		}
		if strategy.Valid {
			sess.Strategy = &domain.Strategy{}
			if err := json.Unmarshal([]byte(strategy.String), sess.Strategy); err != nil {
				return nil, fmt.Errorf("unmarshal strategy: %w", err)
			}
		}
		if debug.Valid {
			sess.Debug = &domain.DebugTrace{}
			if err := json.Unmarshal([]byte(debug.String), sess.Debug); err != nil {
				return nil, fmt.Errorf("unmarshal debug trace: %w", err)
			}
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return out, nil
}

// ---- experiments ----

// SaveExperiment inserts or updates an experiment. When the experiment is
// active, every other experiment of the same user is deactivated in the same
// transaction.
func (s *SQLiteStore) SaveExperiment(ctx context.Context, e *domain.Experiment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if e.Active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE experiments SET active = 0 WHERE user_id = ? AND id <> ?`,
			e.UserID, e.ID); err != nil {
			return fmt.Errorf("deactivate sibling experiments: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO experiments (id, user_id, name, active, mode, started_at, strategy_prompt, content_prompt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			mode = excluded.mode,
			strategy_prompt = excluded.strategy_prompt,
			content_prompt = excluded.content_prompt`,
		e.ID, e.UserID, e.Name, boolToInt(e.Active), string(e.Mode),
		e.StartedAt.UnixMilli(), e.StrategyPrompt, e.ContentPrompt,
	)
	if err != nil {
		return fmt.Errorf("upsert experiment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit experiment save: %w", err)
	}
	return nil
}

// GetExperiment retrieves an experiment by id.
func (s *SQLiteStore) GetExperiment(ctx context.Context, id string) (*domain.Experiment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, active, mode, started_at, strategy_prompt, content_prompt
		FROM experiments WHERE id = ?`, id)

	e, err := scanExperiment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan experiment: %w", err)
	}
	return e, nil
}

// ListExperimentsByUser returns the user's experiments, newest first.
func (s *SQLiteStore) ListExperimentsByUser(ctx context.Context, userID string) ([]domain.Experiment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, active, mode, started_at, strategy_prompt, content_prompt
		FROM experiments WHERE user_id = ? ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []domain.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan experiment row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiment rows: %w", err)
	}
	return out, nil
}

// DeleteExperiment removes the experiment and cascades to its sessions,
// interactions and personal-library articles.
func (s *SQLiteStore) DeleteExperiment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM sessions WHERE experiment_id = ?`,
		`DELETE FROM interactions WHERE experiment_id = ?`,
		`DELETE FROM articles WHERE experiment_id = ? AND library_type = 'personal'`,
		`DELETE FROM experiments WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete experiment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit experiment delete: %w", err)
	}
	return nil
}

func scanExperiment(row interface{ Scan(...any) error }) (*domain.Experiment, error) {
	var (
		e         domain.Experiment
		active    int
		mode      string
		startedAt int64
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &active, &mode, &startedAt, &e.StrategyPrompt, &e.ContentPrompt)
	if err != nil {
		return nil, err
	}
	e.Active = active != 0
	e.Mode = domain.ExperimentMode(mode)
	e.StartedAt = time.UnixMilli(startedAt)
	return &e, nil
}

// ---- config ----

const (
	configKeyStrategyPrompt = "strategy_prompt"
	configKeyContentPrompt  = "content_prompt"
)

// GetPrompts returns the global default strategy and content task prompts.
func (s *SQLiteStore) GetPrompts(ctx context.Context) (string, string, error) {
	strategy, err := s.getConfig(ctx, configKeyStrategyPrompt)
	if err != nil {
		return "", "", err
	}
	content, err := s.getConfig(ctx, configKeyContentPrompt)
	if err != nil {
		return "", "", err
	}
	return strategy, content, nil
}

// SavePrompts stores the global default task prompts.
func (s *SQLiteStore) SavePrompts(ctx context.Context, strategy, content string) error {
	if err := s.setConfig(ctx, configKeyStrategyPrompt, strategy); err != nil {
		return err
	}
	return s.setConfig(ctx, configKeyContentPrompt, content)
}

func (s *SQLiteStore) getConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get config %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) setConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
