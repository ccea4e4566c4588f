package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/user"
)

const userCols = `id, dni, email, password_hash, first_name, last_name, phone, role,
fecha_nacimiento, direccion, carrera_id, especialidad, grado_academico,
is_active, created_at, updated_at, last_login`

type userRow struct {
	ID              int         `db:"id"`
	DNI             string      `db:"dni"`
	Email           string      `db:"email"`
	PasswordHash    []byte      `db:"password_hash"`
	FirstName       string      `db:"first_name"`
	LastName        string      `db:"last_name"`
	Phone           null.String `db:"phone"`
	Role            string      `db:"role"`
	FechaNacimiento null.Time   `db:"fecha_nacimiento"`
	Direccion       null.String `db:"direccion"`
	CarreraID       null.Int    `db:"carrera_id"`
	Especialidad    null.String `db:"especialidad"`
	GradoAcademico  null.String `db:"grado_academico"`
	IsActive        bool        `db:"is_active"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
	LastLogin       null.Time   `db:"last_login"`
}

func (r userRow) unmap() user.User {
	return user.User{
		ID:              r.ID,
		DNI:             r.DNI,
		Email:           r.Email,
		PasswordHash:    r.PasswordHash,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Phone:           r.Phone,
		Role:            r.Role,
		FechaNacimiento: r.FechaNacimiento,
		Direccion:       r.Direccion,
		CarreraID:       r.CarreraID,
		Especialidad:    r.Especialidad,
		GradoAcademico:  r.GradoAcademico,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		LastLogin:       r.LastLogin.Time,
	}
}

func unmapUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unmap())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo *userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, dni, email string, excludedUsers ...user.User) error {
	exclIDs := make([]int, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		exclIDs = append(exclIDs, u.ID)
	}
	exclIDs = append(exclIDs, 0) // sqlx.In rejects empty slices

	check := func(col, val string, sentinel error) error {
		q, args, err := sqlx.In(
			"SELECT EXISTS (SELECT 1 FROM users WHERE "+col+" = ? AND id NOT IN (?))", val, exclIDs)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		var exists bool
		if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if exists {
			return sentinel
		}
		return nil
	}

	if err := check("dni", dni, user.ErrDNIExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
INSERT INTO users (dni, email, password_hash, first_name, last_name, phone, role,
                   fecha_nacimiento, direccion, carrera_id, especialidad, grado_academico,
                   is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		usr.DNI, usr.Email, usr.PasswordHash, usr.FirstName, usr.LastName, usr.Phone, usr.Role,
		usr.FechaNacimiento, usr.Direccion, usr.CarreraID, usr.Especialidad, usr.GradoAcademico,
		usr.IsActive, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			if strings.Contains(pqErr.Constraint, "dni") {
				return user.User{}, user.ErrDNIExists
			}
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+userCols+" FROM users WHERE id = $1", id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by id")
	}
	return row.unmap(), nil
}

func (repo *userRepository) GetUserByDNI(ctx context.Context, dni string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+userCols+" FROM users WHERE dni = $1", dni); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by dni")
	}
	return row.unmap(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+userCols+" FROM users WHERE LOWER(email) = LOWER($1)", email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by email")
	}
	return row.unmap(), nil
}

func (repo *userRepository) GetUserByDNIOrEmail(ctx context.Context, login string) (user.User, error) {
	var row userRow
	const q = "SELECT " + userCols + " FROM users WHERE dni = $1 OR LOWER(email) = LOWER($1)"
	if err := repo.db.GetContext(ctx, &row, q, login); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by dni or email")
	}
	return row.unmap(), nil
}

func (repo *userRepository) QueryUsersByID(ctx context.Context, ids ...int) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In("SELECT "+userCols+" FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users by id")
	}
	return unmapUsers(rows), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	q := "SELECT " + userCols + " FROM users"
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		conds = append(conds, `(dni ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)`)
		pat := "%" + filter.Search + "%"
		args = append(args, pat, pat, pat, pat)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.CarreraID != nil {
		conds = append(conds, "carrera_id = ?")
		args = append(args, *filter.CarreraID)
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.CreatedTo)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderingClause(ordering, "last_name ASC, first_name ASC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return unmapUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	sets := []string{
		"email = ?", "first_name = ?", "last_name = ?", "phone = ?",
		"direccion = ?", "especialidad = ?", "grado_academico = ?", "updated_at = ?",
	}
	args := []interface{}{
		usr.Email, usr.FirstName, usr.LastName, usr.Phone,
		usr.Direccion, usr.Especialidad, usr.GradoAcademico, usr.UpdatedAt,
	}
	if usr.CarreraID.Valid {
		sets = append(sets, "carrera_id = ?")
		args = append(args, usr.CarreraID)
	}
	if usr.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, usr.PasswordHash)
	}
	if isActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *isActive)
	}
	args = append(args, usr.ID)

	q := repo.db.Rebind("UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) SetLastLogin(ctx context.Context, usr user.User) error {
	_, err := repo.db.ExecContext(ctx, "UPDATE users SET last_login = NOW() WHERE id = $1", usr.ID)
	return errors.Wrap(err, "setting last login")
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
