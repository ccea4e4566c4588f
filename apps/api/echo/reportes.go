package echoapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/academic"
	"github.com/Nicko-rgb/server-notas/core/enrollment"
	"github.com/Nicko-rgb/server-notas/core/grade"
	"github.com/Nicko-rgb/server-notas/core/user"
)

type reportesApi struct {
	gradeSvc     *grade.Service
	academicSvc  *academic.Service
	matriculaSvc *enrollment.Service
	userSvc      user.Service
	mailSvc      core.EmailService
}

func registerReportesAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := reportesApi{
		gradeSvc:     opts.GradeSvc,
		academicSvc:  opts.AcademicSvc,
		matriculaSvc: opts.MatriculaSvc,
		userSvc:      opts.UserSvc,
		mailSvc:      opts.MailSvc,
	}

	rg := g.Group("/reportes", jwt, adminMiddleware())
	rg.GET("/ciclos/:cicloID/resumen", api.resumenCiclo)
	rg.GET("/ciclos/:cicloID/distribucion", api.distribucionCiclo)
	rg.GET("/cursos/:cursoID/promedio", api.promedioCurso)
	rg.POST("/ciclos/:cicloID/csv", api.enviarCSV)
}

// cicloNotas loads the cycle, its courses and the per-student record groups of
// every active enrollment.
func (api *reportesApi) cicloNotas(ctx echo.Context, cicloID int) (academic.Ciclo, []academic.Curso, []grade.NotasEstudiante, error) {
	reqCtx := ctx.Request().Context()

	ciclo, err := api.academicSvc.GetCiclo(reqCtx, cicloID)
	if err != nil {
		return academic.Ciclo{}, nil, nil, trapAcademicErr(err, "finding ciclo by ID")
	}

	cursos, err := api.academicSvc.QueryCursosByCiclo(reqCtx, cicloID, true /* activeOnly */)
	if err != nil {
		return academic.Ciclo{}, nil, nil, errors.Wrap(err, "querying cursos by ciclo")
	}
	cursoIDs := make([]int, len(cursos))
	for i, curso := range cursos {
		cursoIDs[i] = curso.ID
	}

	mats, err := api.matriculaSvc.QueryByCiclo(reqCtx, cicloID)
	if err != nil {
		return academic.Ciclo{}, nil, nil, errors.Wrap(err, "querying matriculas by ciclo")
	}

	grupos := make([]grade.NotasEstudiante, 0, len(mats))
	for _, mat := range mats {
		var recs []grade.Record
		if len(cursoIDs) > 0 {
			recs, err = api.gradeSvc.GetByEstudianteCursos(reqCtx, mat.EstudianteID, cursoIDs)
			if err != nil {
				return academic.Ciclo{}, nil, nil, errors.Wrap(err, "querying notas by estudiante")
			}
		}
		grupos = append(grupos, grade.NotasEstudiante{EstudianteID: mat.EstudianteID, Notas: recs})
	}
	return ciclo, cursos, grupos, nil
}

// Handlers

func (api *reportesApi) resumenCiclo(ctx echo.Context) error {
	cicloID, err := pathID(ctx, "cicloID")
	if err != nil {
		return err
	}
	_, _, grupos, err := api.cicloNotas(ctx, cicloID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grade.ResumirCiclo(grupos))
}

func (api *reportesApi) distribucionCiclo(ctx echo.Context) error {
	cicloID, err := pathID(ctx, "cicloID")
	if err != nil {
		return err
	}
	_, _, grupos, err := api.cicloNotas(ctx, cicloID)
	if err != nil {
		return err
	}

	var recs []grade.Record
	for _, grupo := range grupos {
		recs = append(recs, grupo.Notas...)
	}
	return ctx.JSON(http.StatusOK, grade.Distribucion(recs))
}

func (api *reportesApi) promedioCurso(ctx echo.Context) error {
	cursoID, err := pathID(ctx, "cursoID")
	if err != nil {
		return err
	}
	if _, err := api.academicSvc.GetCurso(ctx.Request().Context(), cursoID); err != nil {
		return trapAcademicErr(err, "finding curso by ID")
	}

	recs, err := api.gradeSvc.GetByCurso(ctx.Request().Context(), cursoID)
	if err != nil {
		return errors.Wrap(err, "querying notas by curso")
	}
	return ctx.JSON(http.StatusOK, PromedioCursoResponse{
		CursoID:     cursoID,
		Estudiantes: len(recs),
		Promedio:    grade.PromedioCurso(recs),
	})
}

// enviarCSV renders the cycle's full grade sheet as CSV and mails it to the
// requesting admin.
func (api *reportesApi) enviarCSV(ctx echo.Context) error {
	cicloID, err := pathID(ctx, "cicloID")
	if err != nil {
		return err
	}
	ciclo, cursos, grupos, err := api.cicloNotas(ctx, cicloID)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	buf, err := api.renderCSV(ctx, cursos, grupos)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: ctxUsr.FullName(), Address: ctxUsr.Email}},
		Subject: fmt.Sprintf("Reporte de notas - %s - %s", ciclo.Nombre, core.Conf.AppName),
		BodyStr: fmt.Sprintf("Adjunto el reporte de notas del ciclo %s (%d).", ciclo.Nombre, ciclo.Año),
	}
	filename := fmt.Sprintf("notas-ciclo-%d.csv", ciclo.ID)
	if err := msg.Attach(buf, filename, "text/csv"); err != nil {
		return errors.Wrap(err, "attaching CSV report")
	}
	api.mailSvc.SendMessages(msg)

	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: fmt.Sprintf("El reporte del ciclo %s será enviado a %s.", ciclo.Nombre, ctxUsr.Email),
	})
}

func (api *reportesApi) renderCSV(ctx echo.Context, cursos []academic.Curso, grupos []grade.NotasEstudiante) (*bytes.Buffer, error) {
	estIDs := make([]int, len(grupos))
	for i, grupo := range grupos {
		estIDs[i] = grupo.EstudianteID
	}
	var estudiantes []user.User
	if len(estIDs) > 0 {
		var err error
		estudiantes, err = api.userSvc.GetByIDs(ctx.Request().Context(), estIDs...)
		if err != nil {
			return nil, errors.Wrap(err, "querying estudiantes by IDs")
		}
	}
	estByID := make(map[int]user.User, len(estudiantes))
	for _, est := range estudiantes {
		estByID[est.ID] = est
	}
	cursoByID := make(map[int]academic.Curso, len(cursos))
	for _, curso := range cursos {
		cursoByID[curso.ID] = curso
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	record := []string{
		"dni", "estudiante", "curso",
		"promedio_evaluaciones", "promedio_practicas", "promedio_parciales",
		"promedio_final", "estado",
	}
	if err := w.Write(record); err != nil {
		return nil, errors.Wrap(err, "writing CSV header")
	}

	for _, grupo := range grupos {
		est := estByID[grupo.EstudianteID]
		for _, rec := range grupo.Notas {
			record = []string{
				est.DNI,
				est.FullName(),
				cursoByID[rec.CursoID].Nombre,
				formatScore(null.Float64From(rec.PromedioEvaluaciones())),
				formatScore(null.Float64From(rec.PromedioPracticas())),
				formatScore(null.Float64From(rec.PromedioParciales())),
				formatScore(rec.PromedioFinal()),
				string(rec.Estado()),
			}
			if err := w.Write(record); err != nil {
				return nil, errors.Wrap(err, "writing CSV record")
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "flushing CSV")
	}
	return buf, nil
}

func formatScore(score null.Float64) string {
	if !score.Valid {
		return ""
	}
	return strconv.FormatFloat(score.Float64, 'f', 2, 64)
}

type PromedioCursoResponse struct {
	CursoID     int          `json:"curso_id"`
	Estudiantes int          `json:"estudiantes"`
	Promedio    null.Float64 `json:"promedio"`
}
