// Package repo is the persistence layer of the local checklist service. The
// client-side engine never touches it; it exists so `cl serve` can stand in
// for the remote service with real semantics.
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"checkline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertProgram(ctx context.Context, p domain.Program) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO programs(id,name) VALUES (?,?)`, p.ID, p.Name)
	return err
}

func (r Repo) ListPrograms(ctx context.Context, ids []string) ([]domain.Program, error) {
	query := `SELECT id,name FROM programs ORDER BY id`
	var args []any
	if len(ids) > 0 {
		query = fmt.Sprintf(`SELECT id,name FROM programs WHERE id IN (%s) ORDER BY id`, placeholders(len(ids)))
		for _, id := range ids {
			args = append(args, id)
		}
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Program
	for rows.Next() {
		var p domain.Program
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		if p.ChecklistIDs, err = r.checklistIDs(ctx, p.ID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r Repo) checklistIDs(ctx context.Context, programID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM checklists WHERE program_id=? ORDER BY id`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r Repo) InsertChecklist(ctx context.Context, c domain.Checklist) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO checklists(id,program_id,name) VALUES (?,?,?)`, c.ID, c.ProgramID, c.Name)
	return err
}

func (r Repo) ListChecklists(ctx context.Context, programID string) ([]domain.Checklist, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,program_id,name FROM checklists WHERE program_id=? ORDER BY id`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Checklist
	for rows.Next() {
		var c domain.Checklist
		if err := rows.Scan(&c.ID, &c.ProgramID, &c.Name); err != nil {
			return nil, err
		}
		if c.QuestionIDs, err = r.questionIDs(ctx, c.ID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r Repo) questionIDs(ctx context.Context, checklistID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM questions WHERE checklist_id=? ORDER BY priority, id`, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r Repo) InsertSection(ctx context.Context, s domain.Section) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sections(id,name) VALUES (?,?)`, s.ID, s.Name)
	return err
}

func (r Repo) ListSections(ctx context.Context) ([]domain.Section, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT s.id, s.name FROM sections s ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Section
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := r.sectionQuestionIDs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].QuestionIDs = ids
	}
	return out, nil
}

func (r Repo) sectionQuestionIDs(ctx context.Context, sectionID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM questions WHERE section_id=? ORDER BY priority, id`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const questionColumns = `id,external_key,program_id,section_id,collection_request_id,priority,type,text,optional,COALESCE(unit,'') AS unit,read_only,condition_met`

func scanQuestion(rows *sql.Rows) (domain.Question, error) {
	var q domain.Question
	var sectionID sql.NullString
	var optional, readOnly, conditionMet int
	err := rows.Scan(&q.ID, &q.ExternalKey, &q.ProgramID, &sectionID, &q.CollectionRequestID,
		&q.Priority, &q.Type, &q.Text, &optional, &q.Unit, &readOnly, &conditionMet)
	if err != nil {
		return q, err
	}
	if sectionID.Valid {
		q.SectionID = sectionID.String
	}
	q.Optional = optional != 0
	q.ReadOnly = readOnly != 0
	q.ConditionMet = conditionMet != 0
	return q, nil
}

func (r Repo) InsertQuestion(ctx context.Context, checklistID string, q domain.Question) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO questions(id,external_key,checklist_id,program_id,section_id,collection_request_id,priority,type,text,optional,unit,read_only,condition_met)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		q.ID, q.ExternalKey, checklistID, q.ProgramID, nullable(q.SectionID), q.CollectionRequestID,
		q.Priority, string(q.Type), q.Text, boolInt(q.Optional), nullable(q.Unit), boolInt(q.ReadOnly), boolInt(q.ConditionMet))
	if err != nil {
		return err
	}
	for _, c := range q.Choices {
		if _, err := r.DB.ExecContext(ctx,
			`INSERT INTO choices(id,question_id,label,value,requires_comment,requires_image,requires_document) VALUES (?,?,?,?,?,?,?)`,
			c.ID, q.ID, c.Label, c.Value, boolInt(c.RequiresComment), boolInt(c.RequiresImage), boolInt(c.RequiresDocument)); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id=?`, id)
	if err != nil {
		return domain.Question{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		return domain.Question{}, ErrNotFound
	}
	q, err := scanQuestion(rows)
	if err != nil {
		return domain.Question{}, err
	}
	if q.Choices, err = r.choices(ctx, q.ID); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (r Repo) ListQuestions(ctx context.Context, checklistID string) ([]domain.Question, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE checklist_id=? ORDER BY priority, id`, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Choices, err = r.choices(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r Repo) choices(ctx context.Context, questionID string) ([]domain.Choice, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,question_id,label,value,requires_comment,requires_image,requires_document FROM choices WHERE question_id=? ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Choice
	for rows.Next() {
		var c domain.Choice
		var comment, image, document int
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Label, &c.Value, &comment, &image, &document); err != nil {
			return nil, err
		}
		c.RequiresComment = comment != 0
		c.RequiresImage = image != 0
		c.RequiresDocument = document != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanAnswer(rows *sql.Rows) (domain.Answer, string, error) {
	var a domain.Answer
	var userID string
	var comment sql.NullString
	var locked int
	err := rows.Scan(&a.ID, &a.QuestionID, &a.Value, &comment, &userID, &a.UserRole, &locked, &a.CreatedAt)
	if err != nil {
		return a, "", err
	}
	if comment.Valid {
		a.Comment = comment.String
	}
	a.Locked = locked != 0
	return a, userID, nil
}

const answerColumns = `id,question_id,value,comment,user_id,user_role,locked,created_at`

func (r Repo) InsertAnswer(ctx context.Context, tx *sql.Tx, a domain.Answer, userID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO answers(id,question_id,value,comment,user_id,user_role,locked,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		a.ID, a.QuestionID, a.Value, nullable(a.Comment), userID, a.UserRole, boolInt(a.Locked), a.CreatedAt)
	return err
}

func (r Repo) DeleteAnswersForRole(ctx context.Context, tx *sql.Tx, questionID, role string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE question_id=? AND user_role=?`, questionID, role)
	return err
}

func (r Repo) GetAnswer(ctx context.Context, id string) (domain.Answer, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE id=?`, id)
	if err != nil {
		return domain.Answer{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		return domain.Answer{}, ErrNotFound
	}
	a, _, err := scanAnswer(rows)
	if err != nil {
		return domain.Answer{}, err
	}
	if a.Documents, err = r.ListDocuments(ctx, a.ID); err != nil {
		return domain.Answer{}, err
	}
	return a, nil
}

// AnswersForQuestion returns every role's answer to a question.
func (r Repo) AnswersForQuestion(ctx context.Context, questionID string) ([]domain.Answer, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE question_id=? ORDER BY created_at`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Answer
	for rows.Next() {
		a, _, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Documents, err = r.ListDocuments(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r Repo) DeleteAnswer(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertDocument(ctx context.Context, d domain.Document, answerID, createdAt string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO documents(id,answer_id,name,content,created_at) VALUES (?,?,?,?,?)`,
		d.ID, answerID, d.Name, d.RawDataURL, createdAt)
	return err
}

func (r Repo) ListDocuments(ctx context.Context, answerID string) ([]domain.Document, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name FROM documents WHERE answer_id=? ORDER BY created_at, id`, answerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r Repo) InsertSpecification(ctx context.Context, s domain.Specification) error {
	var cascadeJSON any
	if s.Cascade != nil {
		data, err := json.Marshal(s.Cascade)
		if err != nil {
			return fmt.Errorf("marshal cascade spec: %w", err)
		}
		cascadeJSON = string(data)
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO specifications(collection_request_id,role,read_only,cascade_json) VALUES (?,?,?,?)`,
		s.CollectionRequestID, s.Role, boolInt(s.ReadOnly), cascadeJSON)
	return err
}

func (r Repo) ListSpecifications(ctx context.Context) ([]domain.Specification, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT collection_request_id,role,read_only,cascade_json FROM specifications ORDER BY collection_request_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Specification
	for rows.Next() {
		var s domain.Specification
		var readOnly int
		var cascadeJSON sql.NullString
		if err := rows.Scan(&s.CollectionRequestID, &s.Role, &readOnly, &cascadeJSON); err != nil {
			return nil, err
		}
		s.ReadOnly = readOnly != 0
		if cascadeJSON.Valid && cascadeJSON.String != "" {
			var spec domain.CascadeSpec
			if err := json.Unmarshal([]byte(cascadeJSON.String), &spec); err != nil {
				return nil, fmt.Errorf("cascade spec for %s: %w", s.CollectionRequestID, err)
			}
			s.Cascade = &spec
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
