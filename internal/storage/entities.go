package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aytam/internal/core"
)

// ErrNoRows is re-exported so callers outside storage never import
// database/sql just to classify a miss.
var ErrNoRows = sql.ErrNoRows

type (
	CreateDeceasedParams struct {
		Name        string
		NationalID  string
		DateOfDeath core.Date
	}

	CreateGuardianParams struct {
		Name            string
		NationalID      string
		Phone           string
		Relationship    int
		AppointmentDate core.Date
	}

	CreateOrphanParams struct {
		Name        string
		NationalID  string
		DateOfBirth core.Date
		Gender      core.Gender
		DeceasedID  int64
	}

	CreateGuardianLinkParams struct {
		OrphanID   int64
		GuardianID int64
		IsPrimary  bool
		StartDate  core.Date
	}

	// DeceasedWithCount pairs a deceased record with the number of orphans
	// linked to it, for directory listings.
	DeceasedWithCount struct {
		core.Deceased
		OrphansCount int64
	}

	GuardianWithCount struct {
		core.Guardian
		OrphansCount int64
	}
)

// ---- currencies ----

func (q *Queries) GetCurrencyByName(ctx context.Context, name string) (core.Currency, error) {
	var c core.Currency
	err := q.db.QueryRowContext(ctx,
		`SELECT id, code, name FROM currencies WHERE name = ?`, name,
	).Scan(&c.ID, &c.Code, &c.Name)
	return c, err
}

func (q *Queries) ListCurrencies(ctx context.Context) ([]core.Currency, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, code, name FROM currencies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Currency
	for rows.Next() {
		var c core.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- deceaseds ----

func (q *Queries) CreateDeceased(ctx context.Context, p CreateDeceasedParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO deceaseds (name, national_id, date_of_death) VALUES (?, ?, ?)`,
		p.Name, p.NationalID, dateToDB(p.DateOfDeath))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetDeceased(ctx context.Context, id int64) (core.Deceased, error) {
	var (
		d   core.Deceased
		dod sql.NullString
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, national_id, date_of_death FROM deceaseds WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.NationalID, &dod)
	d.DateOfDeath = dateFromDB(dod)
	return d, err
}

func (q *Queries) GetDeceasedByNationalID(ctx context.Context, nationalID string) (core.Deceased, error) {
	var (
		d   core.Deceased
		dod sql.NullString
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, national_id, date_of_death FROM deceaseds WHERE national_id = ?`, nationalID,
	).Scan(&d.ID, &d.Name, &d.NationalID, &dod)
	d.DateOfDeath = dateFromDB(dod)
	return d, err
}

func (q *Queries) UpdateDeceased(ctx context.Context, d core.Deceased) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE deceaseds SET name = ?, national_id = ?, date_of_death = ? WHERE id = ?`,
		d.Name, d.NationalID, dateToDB(d.DateOfDeath), d.ID)
	return err
}

func (q *Queries) DeleteDeceased(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM deceaseds WHERE id = ?`, id)
	return err
}

func (q *Queries) ListDeceasedWithOrphanCount(ctx context.Context) ([]DeceasedWithCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.national_id, d.date_of_death, COUNT(o.id)
		FROM deceaseds d
		LEFT JOIN orphans o ON o.deceased_id = d.id
		GROUP BY d.id
		ORDER BY d.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeceasedWithCount
	for rows.Next() {
		var (
			d   DeceasedWithCount
			dod sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.NationalID, &dod, &d.OrphansCount); err != nil {
			return nil, err
		}
		d.DateOfDeath = dateFromDB(dod)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ---- guardians ----

func (q *Queries) CreateGuardian(ctx context.Context, p CreateGuardianParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO guardians (name, national_id, phone, relationship, appointment_date)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.NationalID, p.Phone, p.Relationship, dateToDB(p.AppointmentDate))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func scanGuardian(row *sql.Row) (core.Guardian, error) {
	var (
		g     core.Guardian
		phone sql.NullString
		appt  sql.NullString
	)
	err := row.Scan(&g.ID, &g.Name, &g.NationalID, &phone, &g.Relationship, &appt)
	g.Phone = phone.String
	g.AppointmentDate = dateFromDB(appt)
	return g, err
}

func (q *Queries) GetGuardian(ctx context.Context, id int64) (core.Guardian, error) {
	return scanGuardian(q.db.QueryRowContext(ctx,
		`SELECT id, name, national_id, phone, relationship, appointment_date
		 FROM guardians WHERE id = ?`, id))
}

// GetGuardianByNationalIDExcluding finds a guardian holding nationalID other
// than excludeID. Used by collision pre-checks on guardian updates.
func (q *Queries) GetGuardianByNationalIDExcluding(ctx context.Context, nationalID string, excludeID int64) (core.Guardian, error) {
	return scanGuardian(q.db.QueryRowContext(ctx,
		`SELECT id, name, national_id, phone, relationship, appointment_date
		 FROM guardians WHERE national_id = ? AND id != ?`, nationalID, excludeID))
}

func (q *Queries) UpdateGuardian(ctx context.Context, g core.Guardian) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE guardians SET name = ?, national_id = ?, phone = ?, relationship = ?, appointment_date = ?
		 WHERE id = ?`,
		g.Name, g.NationalID, g.Phone, g.Relationship, dateToDB(g.AppointmentDate), g.ID)
	return err
}

func (q *Queries) DeleteGuardian(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM guardians WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListGuardiansWithOrphanCount(ctx context.Context) ([]GuardianWithCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.national_id, g.phone, g.relationship, g.appointment_date,
		       COUNT(DISTINCT og.orphan_id)
		FROM guardians g
		LEFT JOIN orphan_guardians og ON og.guardian_id = g.id
		GROUP BY g.id
		ORDER BY g.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GuardianWithCount
	for rows.Next() {
		var (
			g     GuardianWithCount
			phone sql.NullString
			appt  sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.NationalID, &phone, &g.Relationship, &appt, &g.OrphansCount); err != nil {
			return nil, err
		}
		g.Phone = phone.String
		g.AppointmentDate = dateFromDB(appt)
		out = append(out, g)
	}
	return out, rows.Err()
}

// ---- orphans ----

func (q *Queries) CreateOrphan(ctx context.Context, p CreateOrphanParams, createdAt time.Time) (int64, error) {
	var deceasedID any
	if p.DeceasedID != 0 {
		deceasedID = p.DeceasedID
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO orphans (name, national_id, date_of_birth, gender, deceased_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.NationalID, dateToDB(p.DateOfBirth), int(p.Gender), deceasedID, timeToDB(createdAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func scanOrphanRow(scan func(dest ...any) error) (core.Orphan, error) {
	var (
		o          core.Orphan
		dob        sql.NullString
		deceasedID sql.NullInt64
		createdAt  string
	)
	err := scan(&o.ID, &o.Name, &o.NationalID, &dob, &o.Gender, &deceasedID, &createdAt)
	o.DateOfBirth = dateFromDB(dob)
	o.DeceasedID = deceasedID.Int64
	o.CreatedAt = timeFromDB(createdAt)
	return o, err
}

const orphanColumns = `id, name, national_id, date_of_birth, gender, deceased_id, created_at`

func (q *Queries) GetOrphan(ctx context.Context, id int64) (core.Orphan, error) {
	return scanOrphanRow(q.db.QueryRowContext(ctx,
		`SELECT `+orphanColumns+` FROM orphans WHERE id = ?`, id).Scan)
}

func (q *Queries) GetOrphanByNationalID(ctx context.Context, nationalID string) (core.Orphan, error) {
	return scanOrphanRow(q.db.QueryRowContext(ctx,
		`SELECT `+orphanColumns+` FROM orphans WHERE national_id = ?`, nationalID).Scan)
}

// UpdateOrphanBasic overwrites the editable fields. created_at and
// deceased_id never change on edit.
func (q *Queries) UpdateOrphanBasic(ctx context.Context, o core.Orphan) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE orphans SET name = ?, national_id = ?, date_of_birth = ?, gender = ? WHERE id = ?`,
		o.Name, o.NationalID, dateToDB(o.DateOfBirth), int(o.Gender), o.ID)
	return err
}

func (q *Queries) DeleteOrphan(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM orphans WHERE id = ?`, id)
	return err
}

func (q *Queries) listOrphans(ctx context.Context, query string, args ...any) ([]core.Orphan, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Orphan
	for rows.Next() {
		o, err := scanOrphanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *Queries) ListOrphans(ctx context.Context) ([]core.Orphan, error) {
	return q.listOrphans(ctx, `SELECT `+orphanColumns+` FROM orphans ORDER BY id`)
}

func (q *Queries) ListOrphansByDeceased(ctx context.Context, deceasedID int64) ([]core.Orphan, error) {
	return q.listOrphans(ctx,
		`SELECT `+orphanColumns+` FROM orphans WHERE deceased_id = ? ORDER BY id`, deceasedID)
}

func (q *Queries) ListOrphansByGuardian(ctx context.Context, guardianID int64) ([]core.Orphan, error) {
	return q.listOrphans(ctx, `
		SELECT o.id, o.name, o.national_id, o.date_of_birth, o.gender, o.deceased_id, o.created_at
		FROM orphans o
		JOIN orphan_guardians og ON og.orphan_id = o.id
		WHERE og.guardian_id = ?
		ORDER BY o.id`, guardianID)
}

// ListAdultOrphans returns orphans born on or before the cutoff date.
func (q *Queries) ListAdultOrphans(ctx context.Context, cutoff core.Date) ([]core.Orphan, error) {
	return q.listOrphans(ctx, `
		SELECT `+orphanColumns+` FROM orphans
		WHERE date_of_birth IS NOT NULL AND date_of_birth <= ?
		ORDER BY id`, cutoff.String())
}

// ---- guardian links ----

func (q *Queries) CreateGuardianLink(ctx context.Context, p CreateGuardianLinkParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO orphan_guardians (orphan_id, guardian_id, is_primary, start_date)
		 VALUES (?, ?, ?, ?)`,
		p.OrphanID, p.GuardianID, p.IsPrimary, dateToDB(p.StartDate))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetPrimaryLinkForOrphan(ctx context.Context, orphanID int64) (core.GuardianLink, error) {
	var (
		l          core.GuardianLink
		start, end sql.NullString
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, orphan_id, guardian_id, is_primary, start_date, end_date
		FROM orphan_guardians
		WHERE orphan_id = ? AND is_primary = 1`, orphanID,
	).Scan(&l.ID, &l.OrphanID, &l.GuardianID, &l.IsPrimary, &start, &end)
	l.StartDate = dateFromDB(start)
	l.EndDate = dateFromDB(end)
	return l, err
}

func (q *Queries) DeleteLinksByOrphan(ctx context.Context, orphanID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM orphan_guardians WHERE orphan_id = ?`, orphanID)
	return err
}

func (q *Queries) DeleteLinksByGuardian(ctx context.Context, guardianID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM orphan_guardians WHERE guardian_id = ?`, guardianID)
	return err
}

func (q *Queries) CountLinksByGuardian(ctx context.Context, guardianID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orphan_guardians WHERE guardian_id = ?`, guardianID).Scan(&n)
	return n, err
}

// IsNoRows reports whether err means the row simply was not there.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
