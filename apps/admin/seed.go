package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/grade"
	"github.com/Nicko-rgb/server-notas/core/user"
)

// seed loads a demo carrera with its ciclos and cursos, one user per role and
// an enrollment with a few scores. Existing rows are kept.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	carrera, err := cli.seedCarrera(ctx)
	if err != nil {
		return err
	}
	ciclos, err := cli.seedCiclos(ctx, carrera)
	if err != nil {
		return err
	}
	docente, estudiante, err := cli.seedUsers(ctx, carrera)
	if err != nil {
		return err
	}
	cursos, err := cli.seedCursos(ctx, ciclos[0], docente)
	if err != nil {
		return err
	}
	if err := cli.seedMatricula(ctx, estudiante, ciclos[0]); err != nil {
		return err
	}
	if err := cli.seedNotas(ctx, estudiante, cursos[0], docente); err != nil {
		return err
	}

	logger.Println("demo data loaded")
	logger.Println("admin:      12345678 / admin@sistema.edu")
	logger.Println("docente:    87654321 / docente@sistema.edu")
	logger.Println("estudiante: 11223344 / estudiante@sistema.edu")
	return nil
}

func (cli *commandLine) seedCarrera(ctx context.Context) (academic.Carrera, error) {
	carreras, err := cli.academicRepo.QueryCarreras(ctx, false)
	if err != nil {
		return academic.Carrera{}, err
	}
	for _, c := range carreras {
		if c.Codigo == "ds" {
			return c, nil
		}
	}

	now := time.Now().UTC()
	return cli.academicRepo.CreateCarrera(ctx, academic.Carrera{
		Nombre:         "Desarrollo de Software",
		Codigo:         "ds",
		Descripcion:    null.StringFrom("Carrera técnica enfocada en el desarrollo de aplicaciones y sistemas de software"),
		DuracionCiclos: 6,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (cli *commandLine) seedCiclos(ctx context.Context, carrera academic.Carrera) ([]academic.Ciclo, error) {
	existing, err := cli.academicRepo.QueryCiclosByCarrera(ctx, carrera.ID, false)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	year := time.Now().Year()
	// odd ciclos run April-July, even ones September-December
	template := []struct {
		nombre    string
		numero    int
		mesInicio time.Month
		mesFin    time.Month
	}{
		{"I", 1, time.April, time.July},
		{"II", 2, time.September, time.December},
		{"III", 3, time.April, time.July},
		{"IV", 4, time.September, time.December},
		{"V", 5, time.April, time.July},
		{"VI", 6, time.September, time.December},
	}

	now := time.Now().UTC()
	ciclos := make([]academic.Ciclo, 0, len(template))
	for _, t := range template {
		ciclo, err := cli.academicRepo.CreateCiclo(ctx, academic.Ciclo{
			Nombre:      t.nombre,
			Numero:      t.numero,
			Año:         year,
			FechaInicio: time.Date(year, t.mesInicio, 1, 0, 0, 0, 0, time.UTC),
			FechaFin:    time.Date(year, t.mesFin, 28, 0, 0, 0, 0, time.UTC),
			CarreraID:   carrera.ID,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return nil, err
		}
		ciclos = append(ciclos, ciclo)
	}
	return ciclos, nil
}

func (cli *commandLine) seedUsers(ctx context.Context, carrera academic.Carrera) (docente, estudiante user.User, err error) {
	seedUsr := func(usr user.User, pwd string) (user.User, error) {
		existing, err := cli.usrRepo.GetUserByDNI(ctx, usr.DNI)
		if err == nil {
			return existing, nil
		}
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		if err := usr.SetPassword(pwd); err != nil {
			return user.User{}, err
		}
		now := time.Now().UTC()
		usr.IsActive = true
		usr.CreatedAt = now
		usr.UpdatedAt = now
		return cli.usrRepo.CreateUser(ctx, usr)
	}

	if _, err = seedUsr(user.User{
		DNI:       "12345678",
		Email:     "admin@sistema.edu",
		FirstName: "Carlos",
		LastName:  "Administrador",
		Phone:     null.StringFrom("987654321"),
		Role:      user.RoleAdmin,
	}, "admin123"); err != nil {
		return
	}

	if docente, err = seedUsr(user.User{
		DNI:            "87654321",
		Email:          "docente@sistema.edu",
		FirstName:      "Juan",
		LastName:       "Pérez",
		Phone:          null.StringFrom("987654322"),
		Role:           user.RoleDocente,
		Especialidad:   null.StringFrom("Ingeniería de Software"),
		GradoAcademico: null.StringFrom("Magíster"),
	}, "docente123"); err != nil {
		return
	}

	estudiante, err = seedUsr(user.User{
		DNI:             "11223344",
		Email:           "estudiante@sistema.edu",
		FirstName:       "Pedro",
		LastName:        "López",
		Phone:           null.StringFrom("987654323"),
		Role:            user.RoleEstudiante,
		CarreraID:       null.IntFrom(carrera.ID),
		FechaNacimiento: null.TimeFrom(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)),
		Direccion:       null.StringFrom("Av. Ejemplo 123, Lima"),
	}, "estudiante123")
	return
}

func (cli *commandLine) seedCursos(ctx context.Context, ciclo academic.Ciclo, docente user.User) ([]academic.Curso, error) {
	existing, err := cli.academicRepo.QueryCursosByCiclo(ctx, ciclo.ID, false)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	nombres := []string{
		"Fundamentos de Programación",
		"Matemática Aplicada",
		"Arquitectura de Computadoras",
	}
	now := time.Now().UTC()
	cursos := make([]academic.Curso, 0, len(nombres))
	for _, nombre := range nombres {
		curso, err := cli.academicRepo.CreateCurso(ctx, academic.Curso{
			Nombre:    nombre,
			CicloID:   ciclo.ID,
			DocenteID: null.IntFrom(docente.ID),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		cursos = append(cursos, curso)
	}
	return cursos, nil
}

func (cli *commandLine) seedMatricula(ctx context.Context, estudiante user.User, ciclo academic.Ciclo) error {
	exists, err := cli.matRepo.ActiveExists(ctx, estudiante.ID, ciclo.ID)
	if err != nil || exists {
		return err
	}

	now := time.Now().UTC()
	_, err = cli.matRepo.CreateMatricula(ctx, enrollment.Matricula{
		EstudianteID:    estudiante.ID,
		CicloID:         ciclo.ID,
		CodigoMatricula: enrollment.GenerateCodigo(),
		FechaMatricula:  now,
		Estado:          enrollment.EstadoActiva,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	return err
}

func (cli *commandLine) seedNotas(ctx context.Context, estudiante user.User, curso academic.Curso, docente user.User) error {
	if _, err := cli.gradeRepo.GetNotaEstudianteCurso(ctx, estudiante.ID, curso.ID); err == nil {
		return nil
	} else if errors.Cause(err) != grade.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	rec := grade.Record{
		EstudianteID:  estudiante.ID,
		CursoID:       curso.ID,
		FechaRegistro: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	rec.Evaluaciones[0] = null.Float64From(15)
	rec.Evaluaciones[1] = null.Float64From(16)
	rec.Practicas[0] = null.Float64From(12)
	rec.Practicas[1] = null.Float64From(13)
	rec.Parciales[0] = null.Float64From(14)

	rec, err := cli.gradeRepo.CreateNota(ctx, rec)
	if err != nil {
		return err
	}
	return cli.gradeRepo.AppendHistorial(ctx, seedHistorial(rec, docente)...)
}

func seedHistorial(rec grade.Record, docente user.User) []grade.Historial {
	now := time.Now().UTC()
	entries := make([]grade.Historial, 0, 5)
	appendEntry := func(campo string, val null.Float64) {
		if !val.Valid {
			return
		}
		entries = append(entries, grade.Historial{
			NotaID:              rec.ID,
			EstudianteID:        rec.EstudianteID,
			CursoID:             rec.CursoID,
			Campo:               campo,
			NotaNueva:           val,
			MotivoCambio:        grade.MotivoCreacion,
			UsuarioModificacion: docente.DNI,
			FechaModificacion:   now,
		})
	}
	for i, v := range rec.Evaluaciones {
		appendEntry(fmt.Sprintf("evaluacion%d", i+1), v)
	}
	for i, v := range rec.Practicas {
		appendEntry(fmt.Sprintf("practica%d", i+1), v)
	}
	for i, v := range rec.Parciales {
		appendEntry(fmt.Sprintf("parcial%d", i+1), v)
	}
	return entries
}
