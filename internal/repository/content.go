package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/forum-api/internal/models"
)

// ContentEdit describes one edit of a question, answer or comment. Fields holds
// the new column values; Revision carries the previous snapshot.
type ContentEdit struct {
	ID       uint
	Fields   map[string]interface{}
	Revision models.Revision
	At       time.Time
}

// ContentRemoval describes a soft delete.
type ContentRemoval struct {
	ID      uint
	ActorID uint
	Reason  string
	At      time.Time
}

func lockRow(tx *gorm.DB, table string, id uint, dest interface{}) error {
	return tx.Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_deleted = ?", id, false).
		Take(dest).Error
}

func applyEdit(tx *gorm.DB, contentType string, edit ContentEdit) error {
	table, ok := models.ContentTable(contentType)
	if !ok {
		return gorm.ErrInvalidField
	}

	var trail models.EditTrail
	trail.MarkEdited(edit.Revision.EditorID, edit.At)
	fields := trail.Columns()
	for key, value := range edit.Fields {
		fields[key] = value
	}
	fields["updated_at"] = edit.At

	result := tx.Table(table).Where("id = ? AND is_deleted = ?", edit.ID, false).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	revision := edit.Revision
	revision.ContentType = contentType
	revision.ContentID = edit.ID
	revision.CreatedAt = edit.At
	return tx.Create(&revision).Error
}

func softDelete(tx *gorm.DB, table string, removal ContentRemoval) error {
	var envelope models.SoftDelete
	envelope.MarkDeleted(removal.ActorID, removal.Reason, removal.At)
	fields := envelope.Columns()
	fields["updated_at"] = removal.At

	result := tx.Table(table).
		Where("id = ? AND is_deleted = ?", removal.ID, false).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards so user input matches literally. Queries
// using it declare ESCAPE '\'.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func paginate(query *gorm.DB, page, limit int) *gorm.DB {
	if limit <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * limit).Limit(limit)
}
