package postgres

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository"
)

const conversationColumns = `
	id, participant_a, participant_b, participant_snapshot, blocked_by, unread_by,
	last_message_preview, last_message_at, created_at, created_by`

const messageColumns = `
	id, COALESCE(client_id, ''), conversation_id, sender_id, content, media,
	created_at, sent_at, read_by, reply_to, forwarded, is_system, edited`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type DMRepo struct {
	pool *pgxpool.Pool
}

func NewDMRepo(pool *pgxpool.Pool) *DMRepo {
	return &DMRepo{pool: pool}
}

func (r *DMRepo) CreateConversation(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, bool, error) {
	query := `
		INSERT INTO dm_conversations (` + conversationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, query,
		conv.ID, conv.Participants[0], conv.Participants[1], conv.ParticipantSnapshot,
		conv.BlockedBy, conv.UnreadBy, conv.LastMessagePreview, conv.LastMessageAt,
		conv.CreatedAt, conv.CreatedBy,
	)
	if err != nil {
		return nil, false, errors.Wrap(err, "dmRepo.CreateConversation.Exec")
	}

	stored, err := r.GetConversation(ctx, conv.ID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		// Deleted between insert and read; report what was attempted.
		return conv, tag.RowsAffected() == 1, nil
	}
	return stored, tag.RowsAffected() == 1, nil
}

func (r *DMRepo) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM dm_conversations WHERE id = $1`
	conv, err := scanConversation(r.pool.QueryRow(ctx, query, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "dmRepo.GetConversation.Scan")
	}
	return conv, nil
}

func (r *DMRepo) ListConversations(ctx context.Context, identity string) ([]domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM dm_conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY COALESCE(last_message_at, created_at) DESC, id`

	rows, err := r.pool.Query(ctx, query, identity)
	if err != nil {
		return nil, errors.Wrap(err, "dmRepo.ListConversations.Query")
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "dmRepo.ListConversations.Scan")
		}
		convs = append(convs, *conv)
	}
	return convs, rows.Err()
}

func (r *DMRepo) ListConversationIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM dm_conversations ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "dmRepo.ListConversationIDs.Query")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "dmRepo.ListConversationIDs.Collect")
	}
	return ids, nil
}

func (r *DMRepo) GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	return getMessage(ctx, r.pool, `SELECT `+messageColumns+` FROM dm_messages WHERE id = $1`, id)
}

func (r *DMRepo) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	return listMessages(ctx, r.pool, conversationID)
}

func (r *DMRepo) DeleteConversation(ctx context.Context, id string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, errors.Wrap(err, "dmRepo.DeleteConversation.Begin")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM dm_messages WHERE conversation_id = $1`, id); err != nil {
		return false, errors.Wrap(err, "dmRepo.DeleteConversation.DeleteMessages")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM dm_conversations WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "dmRepo.DeleteConversation.DeleteConversation")
	}
	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "dmRepo.DeleteConversation.Commit")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DMRepo) WithConversation(ctx context.Context, id string, fn func(tx repository.DMTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "dmRepo.WithConversation.Begin")
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + conversationColumns + ` FROM dm_conversations WHERE id = $1 FOR UPDATE`
	conv, err := scanConversation(tx.QueryRow(ctx, query, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return repository.ErrConversationNotFound
	}
	if err != nil {
		return errors.Wrap(err, "dmRepo.WithConversation.Lock")
	}

	if err := fn(&pgTx{tx: tx, conv: conv}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "dmRepo.WithConversation.Commit")
	}
	return nil
}

// pgTx implements repository.DMTx on top of an open transaction.
type pgTx struct {
	tx   pgx.Tx
	conv *domain.Conversation
}

func (t *pgTx) Conversation() *domain.Conversation { return t.conv }

func (t *pgTx) SaveConversation(ctx context.Context) error {
	query := `
		UPDATE dm_conversations
		SET blocked_by = $2, unread_by = $3, last_message_preview = $4, last_message_at = $5
		WHERE id = $1`
	_, err := t.tx.Exec(ctx, query,
		t.conv.ID, t.conv.BlockedBy, t.conv.UnreadBy, t.conv.LastMessagePreview, t.conv.LastMessageAt,
	)
	return errors.Wrap(err, "dmTx.SaveConversation.Exec")
}

func (t *pgTx) Messages(ctx context.Context) ([]domain.Message, error) {
	return listMessages(ctx, t.tx, t.conv.ID)
}

func (t *pgTx) Message(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM dm_messages WHERE id = $1 AND conversation_id = $2`
	return getMessage(ctx, t.tx, query, id, t.conv.ID)
}

func (t *pgTx) MessageByClientID(ctx context.Context, clientID string) (*domain.Message, error) {
	if clientID == "" {
		return nil, nil
	}
	query := `SELECT ` + messageColumns + ` FROM dm_messages WHERE conversation_id = $1 AND client_id = $2`
	return getMessage(ctx, t.tx, query, t.conv.ID, clientID)
}

func (t *pgTx) InsertMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO dm_messages (
			id, client_id, conversation_id, sender_id, content, media,
			created_at, sent_at, read_by, reply_to, forwarded, is_system, edited
		)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := t.tx.Exec(ctx, query,
		msg.ID, msg.ClientID, msg.ConversationID, msg.SenderID, msg.Content, mediaOrEmpty(msg.Media),
		msg.CreatedAt, msg.SentAt, msg.ReadBy, msg.ReplyTo, msg.Forwarded, msg.IsSystem, msg.Edited,
	)
	return errors.Wrap(err, "dmTx.InsertMessage.Exec")
}

func (t *pgTx) UpdateMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		UPDATE dm_messages
		SET content = $2, read_by = $3, edited = $4
		WHERE id = $1 AND conversation_id = $5`
	_, err := t.tx.Exec(ctx, query, msg.ID, msg.Content, msg.ReadBy, msg.Edited, t.conv.ID)
	return errors.Wrap(err, "dmTx.UpdateMessage.Exec")
}

func (t *pgTx) DeleteMessages(ctx context.Context, ids []uuid.UUID) ([]domain.Message, error) {
	query := `
		DELETE FROM dm_messages
		WHERE conversation_id = $1 AND id = ANY($2)
		RETURNING ` + messageColumns
	rows, err := t.tx.Query(ctx, query, t.conv.ID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "dmTx.DeleteMessages.Query")
	}
	defer rows.Close()

	var removed []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "dmTx.DeleteMessages.Scan")
		}
		removed = append(removed, *msg)
	}
	return removed, rows.Err()
}

func getMessage(ctx context.Context, q querier, query string, args ...any) (*domain.Message, error) {
	msg, err := scanMessage(q.QueryRow(ctx, query, args...))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "dmRepo.GetMessage.Scan")
	}
	return msg, nil
}

func listMessages(ctx context.Context, q querier, conversationID string) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM dm_messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`
	rows, err := q.Query(ctx, query, conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "dmRepo.ListMessages.Query")
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "dmRepo.ListMessages.Scan")
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := row.Scan(
		&conv.ID, &conv.Participants[0], &conv.Participants[1], &conv.ParticipantSnapshot,
		&conv.BlockedBy, &conv.UnreadBy, &conv.LastMessagePreview, &conv.LastMessageAt,
		&conv.CreatedAt, &conv.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	if conv.BlockedBy == nil {
		conv.BlockedBy = map[string]string{}
	}
	if conv.UnreadBy == nil {
		conv.UnreadBy = map[string]int{}
	}
	return &conv, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.ID, &msg.ClientID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.Media,
		&msg.CreatedAt, &msg.SentAt, &msg.ReadBy, &msg.ReplyTo, &msg.Forwarded, &msg.IsSystem, &msg.Edited,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func mediaOrEmpty(media []domain.Attachment) []domain.Attachment {
	if media == nil {
		return []domain.Attachment{}
	}
	return media
}
