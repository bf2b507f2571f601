package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-revision-api/internal/models"
)

const revisionListColumns = `id, student_id, source_assignment_id, title, description, created_at, updated_at`

const revisionItemColumns = `id, revision_list_id, question_id, topic, sub_topic, targeted_topic_key, marks, order_index,
       allocation_status, student_answer, started_at, completed_at, created_at, updated_at`

// RevisionRepository persists revision lists and their items.
type RevisionRepository struct {
	db *sqlx.DB
}

// NewRevisionRepository constructs the repository.
func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Load returns the list keyed by student and source assignment along with its
// items. A nil list means none exists yet.
func (r *RevisionRepository) Load(ctx context.Context, studentID string, sourceAssignmentID *string) (*models.RevisionList, []models.RevisionListItem, error) {
	query := `SELECT ` + revisionListColumns + ` FROM revision_lists
	WHERE student_id = $1 AND source_assignment_id IS NOT DISTINCT FROM $2`
	var list models.RevisionList
	if err := r.db.GetContext(ctx, &list, query, studentID, sourceAssignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("load revision list: %w", err)
	}
	items, err := r.Items(ctx, list.ID)
	if err != nil {
		return nil, nil, err
	}
	return &list, items, nil
}

// FindByID returns a list or sql.ErrNoRows.
func (r *RevisionRepository) FindByID(ctx context.Context, listID string) (*models.RevisionList, error) {
	query := `SELECT ` + revisionListColumns + ` FROM revision_lists WHERE id = $1`
	var list models.RevisionList
	if err := r.db.GetContext(ctx, &list, query, listID); err != nil {
		return nil, err
	}
	return &list, nil
}

// Items returns a list's items in allocation order.
func (r *RevisionRepository) Items(ctx context.Context, listID string) ([]models.RevisionListItem, error) {
	query := `SELECT ` + revisionItemColumns + ` FROM revision_list_items
	WHERE revision_list_id = $1 ORDER BY order_index, created_at`
	var items []models.RevisionListItem
	if err := r.db.SelectContext(ctx, &items, query, listID); err != nil {
		return nil, fmt.Errorf("list revision items: %w", err)
	}
	return items, nil
}

// ListByStudent returns a student's lists, most recently updated first.
func (r *RevisionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RevisionList, error) {
	query := `SELECT ` + revisionListColumns + ` FROM revision_lists
	WHERE student_id = $1 ORDER BY updated_at DESC, id`
	var lists []models.RevisionList
	if err := r.db.SelectContext(ctx, &lists, query, studentID); err != nil {
		return nil, fmt.Errorf("list revision lists: %w", err)
	}
	return lists, nil
}

// CountItemsByStatus returns per-list item counts.
func (r *RevisionRepository) CountItemsByStatus(ctx context.Context, listIDs []string) (map[string]models.RevisionProgress, error) {
	result := make(map[string]models.RevisionProgress, len(listIDs))
	if len(listIDs) == 0 {
		return result, nil
	}
	const query = `SELECT revision_list_id, allocation_status, COUNT(*) AS total
	FROM revision_list_items WHERE revision_list_id = ANY($1)
	GROUP BY revision_list_id, allocation_status`
	var rows []struct {
		ListID string                  `db:"revision_list_id"`
		Status models.AllocationStatus `db:"allocation_status"`
		Total  int                     `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(listIDs)); err != nil {
		return nil, fmt.Errorf("count revision items: %w", err)
	}
	for _, row := range rows {
		progress := result[row.ListID]
		switch row.Status {
		case models.AllocationPending:
			progress.Pending += row.Total
		case models.AllocationInProgress:
			progress.InProgress += row.Total
		case models.AllocationCompleted:
			progress.Completed += row.Total
		}
		progress.Total += row.Total
		result[row.ListID] = progress
	}
	return result, nil
}

// Save upserts the list row and inserts newItems in one transaction. Items
// already present for the same question are left untouched. When another
// writer created the list first, list.ID and the items adopt its id.
func (r *RevisionRepository) Save(ctx context.Context, list *models.RevisionList, newItems []models.RevisionListItem) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revision list tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertList = `INSERT INTO revision_lists (id, student_id, source_assignment_id, title, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (student_id, source_assignment_id)
DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := tx.QueryRowxContext(ctx, upsertList,
		list.ID, list.StudentID, list.SourceAssignmentID, list.Title, list.Description, list.CreatedAt, list.UpdatedAt)
	var (
		listID    string
		createdAt time.Time
	)
	if err = row.Scan(&listID, &createdAt); err != nil {
		return fmt.Errorf("upsert revision list: %w", err)
	}
	list.ID = listID
	list.CreatedAt = createdAt

	const insertItem = `INSERT INTO revision_list_items
	(id, revision_list_id, question_id, topic, sub_topic, targeted_topic_key, marks, order_index,
	 allocation_status, student_answer, started_at, completed_at, created_at, updated_at)
	VALUES (:id, :revision_list_id, :question_id, :topic, :sub_topic, :targeted_topic_key, :marks, :order_index,
	 :allocation_status, :student_answer, :started_at, :completed_at, :created_at, :updated_at)
	ON CONFLICT (revision_list_id, question_id) DO NOTHING`
	for i := range newItems {
		newItems[i].RevisionListID = listID
		if _, err = tx.NamedExecContext(ctx, insertItem, newItems[i]); err != nil {
			return fmt.Errorf("insert revision item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit revision list tx: %w", err)
	}
	return nil
}

// FindItem returns an item or sql.ErrNoRows.
func (r *RevisionRepository) FindItem(ctx context.Context, itemID string) (*models.RevisionListItem, error) {
	query := `SELECT ` + revisionItemColumns + ` FROM revision_list_items WHERE id = $1`
	var item models.RevisionListItem
	if err := r.db.GetContext(ctx, &item, query, itemID); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies patch only while the stored status is one of
// allowedFrom. It reports whether a row changed.
func (r *RevisionRepository) UpdateItem(ctx context.Context, itemID string, patch models.RevisionItemPatch, allowedFrom []models.AllocationStatus) (bool, error) {
	allowed := make([]string, len(allowedFrom))
	for i, status := range allowedFrom {
		allowed[i] = string(status)
	}
	const query = `UPDATE revision_list_items
	SET allocation_status = $1, student_answer = $2, started_at = $3, completed_at = $4, updated_at = $5
	WHERE id = $6 AND allocation_status = ANY($7)`
	result, err := r.db.ExecContext(ctx, query,
		patch.AllocationStatus, patch.StudentAnswer, patch.StartedAt, patch.CompletedAt, patch.UpdatedAt,
		itemID, pq.Array(allowed))
	if err != nil {
		return false, fmt.Errorf("update revision item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check revision item update rows: %w", err)
	}
	return rows > 0, nil
}

// Delete removes a list and, through the cascade, its items.
func (r *RevisionRepository) Delete(ctx context.Context, listID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM revision_lists WHERE id = $1`, listID)
	if err != nil {
		return fmt.Errorf("delete revision list: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check revision list delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
