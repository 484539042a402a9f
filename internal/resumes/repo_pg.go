package resumes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/karthik1704/rsr-v1/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const resumeColumns = `id, user_id, title, first_name, last_name, date_of_birth, nationality,
  address_line_1, address_line_2, postal_code, city, country, email_address, contact_number,
  job_applied_for, image_key, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, res Resume) error {
	const query = `
INSERT INTO resumes (id, user_id, title, first_name, last_name, date_of_birth, nationality,
  address_line_1, address_line_2, postal_code, city, country, email_address, contact_number,
  job_applied_for, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		res.ID,
		res.UserID,
		res.Title,
		res.FirstName,
		res.LastName,
		dateArg(res.DateOfBirth),
		res.Nationality,
		res.AddressLine1,
		res.AddressLine2,
		res.PostalCode,
		res.City,
		res.Country,
		res.EmailAddress,
		res.ContactNumber,
		res.JobAppliedFor,
	)
	if db.IsUniqueViolation(err, "resumes_user_id_key") {
		return resumeExists()
	}
	return err
}

func (r *PGRepo) Get(ctx context.Context, resumeID string) (Aggregate, error) {
	return r.load(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, resumeID)
}

func (r *PGRepo) GetByUser(ctx context.Context, userID string) (Aggregate, error) {
	return r.load(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1`, userID)
}

func (r *PGRepo) Apply(ctx context.Context, resumeID string, c Changes) error {
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := writeResume(ctx, tx, resumeID, c.Resume); err != nil {
			return err
		}
		if err := applyTable(ctx, tx, resumeID, experienceTable, c.Experiences); err != nil {
			return err
		}
		if err := applyTable(ctx, tx, resumeID, educationTable, c.Educations); err != nil {
			return err
		}
		if err := applyTable(ctx, tx, resumeID, languageSkillTable, c.LanguageSkills); err != nil {
			return err
		}
		if err := applyTable(ctx, tx, resumeID, drivingLicenseTable, c.DrivingLicenses); err != nil {
			return err
		}
		if err := applyTable(ctx, tx, resumeID, trainingAwardTable, c.TrainingAwards); err != nil {
			return err
		}
		return applyTable(ctx, tx, resumeID, otherTable, c.Others)
	})
}

// Delete removes the resume; child rows go with it through ON DELETE CASCADE.
func (r *PGRepo) Delete(ctx context.Context, resumeID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, resumeID)
	return expectRow(res, err, resumeNotFound)
}

func (r *PGRepo) load(ctx context.Context, query string, arg string) (Aggregate, error) {
	var agg Aggregate
	res, err := scanResume(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Aggregate{}, resumeNotFound()
	}
	if err != nil {
		return Aggregate{}, err
	}
	agg.Resume = res

	if agg.Experiences, err = loadTable(ctx, r.DB, res.ID, experienceTable); err != nil {
		return Aggregate{}, err
	}
	if agg.Educations, err = loadTable(ctx, r.DB, res.ID, educationTable); err != nil {
		return Aggregate{}, err
	}
	if agg.LanguageSkills, err = loadTable(ctx, r.DB, res.ID, languageSkillTable); err != nil {
		return Aggregate{}, err
	}
	if agg.DrivingLicenses, err = loadTable(ctx, r.DB, res.ID, drivingLicenseTable); err != nil {
		return Aggregate{}, err
	}
	if agg.TrainingAwards, err = loadTable(ctx, r.DB, res.ID, trainingAwardTable); err != nil {
		return Aggregate{}, err
	}
	if agg.Others, err = loadTable(ctx, r.DB, res.ID, otherTable); err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

func writeResume(ctx context.Context, tx *sql.Tx, resumeID string, res *Resume) error {
	if res == nil {
		result, err := tx.ExecContext(ctx, `UPDATE resumes SET updated_at = now() WHERE id = $1`, resumeID)
		return expectRow(result, err, resumeNotFound)
	}
	const query = `
UPDATE resumes SET
  title = $2, first_name = $3, last_name = $4, date_of_birth = $5, nationality = $6,
  address_line_1 = $7, address_line_2 = $8, postal_code = $9, city = $10, country = $11,
  email_address = $12, contact_number = $13, job_applied_for = $14, image_key = $15,
  updated_at = now()
WHERE id = $1`
	result, err := tx.ExecContext(ctx, query,
		resumeID,
		res.Title,
		res.FirstName,
		res.LastName,
		dateArg(res.DateOfBirth),
		res.Nationality,
		res.AddressLine1,
		res.AddressLine2,
		res.PostalCode,
		res.City,
		res.Country,
		res.EmailAddress,
		res.ContactNumber,
		res.JobAppliedFor,
		res.ImageKey,
	)
	return expectRow(result, err, resumeNotFound)
}

func scanResume(row rowScanner) (Resume, error) {
	var (
		res Resume
		dob sql.Null[Date]
		txt [12]sql.NullString
	)
	err := row.Scan(
		&res.ID, &res.UserID,
		&txt[0], &txt[1], &txt[2], &dob, &txt[3],
		&txt[4], &txt[5], &txt[6], &txt[7], &txt[8], &txt[9], &txt[10],
		&txt[11], &res.ImageKey, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return Resume{}, err
	}
	res.Title = strPtr(txt[0])
	res.FirstName = strPtr(txt[1])
	res.LastName = strPtr(txt[2])
	res.Nationality = strPtr(txt[3])
	res.AddressLine1 = strPtr(txt[4])
	res.AddressLine2 = strPtr(txt[5])
	res.PostalCode = strPtr(txt[6])
	res.City = strPtr(txt[7])
	res.Country = strPtr(txt[8])
	res.EmailAddress = strPtr(txt[9])
	res.ContactNumber = strPtr(txt[10])
	res.JobAppliedFor = strPtr(txt[11])
	res.DateOfBirth = datePtr(dob)
	return res, nil
}

// table describes how one child collection maps onto its SQL table.
type table[R any] struct {
	name    string
	columns []string
	id      func(R) string
	values  func(R) []any
	scan    func(rowScanner) (R, error)
}

func (t table[R]) selectSQL() string {
	return fmt.Sprintf("SELECT id, %s FROM %s WHERE resume_id = $1 ORDER BY position, id",
		strings.Join(t.columns, ", "), t.name)
}

func (t table[R]) insertSQL() string {
	cols := append([]string{"id", "resume_id", "position"}, t.columns...)
	marks := make([]string, len(cols))
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func (t table[R]) updateSQL() string {
	sets := make([]string, 0, len(t.columns)+1)
	sets = append(sets, "position = $3")
	for i, col := range t.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+4))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 AND resume_id = $2", t.name, strings.Join(sets, ", "))
}

func loadTable[R any](ctx context.Context, q db.Queryer, resumeID string, t table[R]) ([]R, error) {
	rows, err := q.QueryContext(ctx, t.selectSQL(), resumeID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []R{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// applyTable persists one reconciled collection. Positions follow the
// submitted order, so untouched rows are renumbered only when they moved.
func applyTable[R any](ctx context.Context, tx *sql.Tx, resumeID string, t table[R], s *Sync[R]) error {
	if s == nil {
		return nil
	}
	for _, id := range s.Plan.Deletes {
		res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND resume_id = $2", t.name), id, resumeID)
		if err := expectRow(res, err, func() error { return childNotFound(id) }); err != nil {
			return err
		}
	}

	created := make(map[string]struct{}, len(s.Plan.Creates))
	for _, rec := range s.Plan.Creates {
		created[t.id(rec)] = struct{}{}
	}
	updated := make(map[string]struct{}, len(s.Plan.Updates))
	for _, rec := range s.Plan.Updates {
		updated[t.id(rec)] = struct{}{}
	}
	before := make(map[string]int, len(s.Before))
	for i, rec := range s.Before {
		before[t.id(rec)] = i
	}

	for pos, rec := range s.Plan.Result {
		id := t.id(rec)
		if _, ok := created[id]; ok {
			args := append([]any{id, resumeID, pos}, t.values(rec)...)
			if _, err := tx.ExecContext(ctx, t.insertSQL(), args...); err != nil {
				return fmt.Errorf("insert %s: %w", t.name, err)
			}
			continue
		}
		var (
			res sql.Result
			err error
		)
		if _, ok := updated[id]; ok {
			args := append([]any{id, resumeID, pos}, t.values(rec)...)
			res, err = tx.ExecContext(ctx, t.updateSQL(), args...)
		} else if prev, ok := before[id]; !ok || prev != pos {
			res, err = tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET position = $3 WHERE id = $1 AND resume_id = $2", t.name), id, resumeID, pos)
		} else {
			continue
		}
		if err := expectRow(res, err, func() error { return childNotFound(id) }); err != nil {
			return err
		}
	}
	return nil
}

func expectRow(res sql.Result, err error, notFound func() error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound()
	}
	return nil
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func datePtr(v sql.Null[Date]) *Date {
	if !v.Valid {
		return nil
	}
	d := v.V
	return &d
}

var experienceTable = table[Experience]{
	name: "experiences",
	columns: []string{"employer", "website", "location", "occupation", "from_date", "to_date",
		"currently_working", "about_company", "responsibilities"},
	id: func(r Experience) string { return r.ID },
	values: func(r Experience) []any {
		return []any{r.Employer, r.Website, r.Location, r.Occupation, r.FromDate.String(), dateArg(r.ToDate),
			r.CurrentlyWorking, r.AboutCompany, r.Responsibilities}
	},
	scan: func(row rowScanner) (Experience, error) {
		var (
			r       Experience
			website sql.NullString
			about   sql.NullString
			to      sql.Null[Date]
		)
		err := row.Scan(&r.ID, &r.Employer, &website, &r.Location, &r.Occupation, &r.FromDate, &to,
			&r.CurrentlyWorking, &about, &r.Responsibilities)
		r.Website, r.AboutCompany, r.ToDate = strPtr(website), strPtr(about), datePtr(to)
		return r, err
	},
}

var educationTable = table[Education]{
	name:    "educations",
	columns: []string{"title_of_qualification", "organization_name", "from_date", "to_date", "city", "country"},
	id:      func(r Education) string { return r.ID },
	values: func(r Education) []any {
		return []any{r.TitleOfQualification, r.OrganizationName, r.FromDate.String(), dateArg(r.ToDate), r.City, r.Country}
	},
	scan: func(row rowScanner) (Education, error) {
		var (
			r  Education
			to sql.Null[Date]
		)
		err := row.Scan(&r.ID, &r.TitleOfQualification, &r.OrganizationName, &r.FromDate, &to, &r.City, &r.Country)
		r.ToDate = datePtr(to)
		return r, err
	},
}

var languageSkillTable = table[LanguageSkill]{
	name:    "language_skills",
	columns: []string{"language", "is_mother_tongue", "proficiency_level"},
	id:      func(r LanguageSkill) string { return r.ID },
	values: func(r LanguageSkill) []any {
		return []any{r.Language, r.IsMotherTongue, r.ProficiencyLevel}
	},
	scan: func(row rowScanner) (LanguageSkill, error) {
		var (
			r     LanguageSkill
			level sql.NullString
		)
		err := row.Scan(&r.ID, &r.Language, &r.IsMotherTongue, &level)
		r.ProficiencyLevel = strPtr(level)
		return r, err
	},
}

var drivingLicenseTable = table[DrivingLicense]{
	name:    "driving_licenses",
	columns: []string{"license_type", "issued_date", "expiry_date"},
	id:      func(r DrivingLicense) string { return r.ID },
	values: func(r DrivingLicense) []any {
		return []any{r.LicenseType, r.IssuedDate.String(), r.ExpiryDate.String()}
	},
	scan: func(row rowScanner) (DrivingLicense, error) {
		var r DrivingLicense
		err := row.Scan(&r.ID, &r.LicenseType, &r.IssuedDate, &r.ExpiryDate)
		return r, err
	},
}

var trainingAwardTable = table[TrainingAward]{
	name:    "training_awards",
	columns: []string{"title", "awarding_institute", "from_date", "to_date", "location"},
	id:      func(r TrainingAward) string { return r.ID },
	values: func(r TrainingAward) []any {
		return []any{r.Title, r.AwardingInstitute, r.FromDate.String(), dateArg(r.ToDate), r.Location}
	},
	scan: func(row rowScanner) (TrainingAward, error) {
		var (
			r  TrainingAward
			to sql.Null[Date]
		)
		err := row.Scan(&r.ID, &r.Title, &r.AwardingInstitute, &r.FromDate, &to, &r.Location)
		r.ToDate = datePtr(to)
		return r, err
	},
}

var otherTable = table[Other]{
	name:    "other_sections",
	columns: []string{"section_title", "title", "description"},
	id:      func(r Other) string { return r.ID },
	values: func(r Other) []any {
		return []any{r.SectionTitle, r.Title, r.Description}
	},
	scan: func(row rowScanner) (Other, error) {
		var r Other
		err := row.Scan(&r.ID, &r.SectionTitle, &r.Title, &r.Description)
		return r, err
	},
}
