package work

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/acervo/internal/platform/request"
	"github.com/taibuivan/acervo/internal/platform/respond"
	"github.com/taibuivan/acervo/pkg/slice"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listWorks)
	router.Post("/", handler.createWork)
	router.Put("/{id}", handler.updateWork)
	router.Delete("/{id}", handler.deleteWork)
}

// # Transport DTOs

// formPayload is the JSON rendering of a [Form].
type formPayload struct {
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Kind            string   `json:"kind"`
	PublicationYear yearText `json:"publication_year"`
	Publisher       string   `json:"publisher"`
	CallNumber      string   `json:"call_number"`
	Edition         string   `json:"edition"`
	IdentifierCode  string   `json:"identifier_code"`
	Volume          string   `json:"volume"`
}

// yearText accepts the publication year either as a JSON string or a number,
// keeping the raw text so the form contract reports malformed values.
type yearText string

func (y *yearText) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*y = yearText(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*y = yearText(number.String())
	return nil
}

func (payload formPayload) toForm(id string) Form {
	return Form{
		ID:              id,
		Title:           payload.Title,
		AuthorName:      payload.Author,
		Kind:            payload.Kind,
		PublicationYear: string(payload.PublicationYear),
		PublisherName:   payload.Publisher,
		CallNumber:      payload.CallNumber,
		Edition:         payload.Edition,
		IdentifierCode:  payload.IdentifierCode,
		Volume:          payload.Volume,
	}
}

// workResponse is the JSON rendering of a [Work]. Its field names mirror
// formPayload, so a listed work can be edited and sent back as is.
type workResponse struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Publisher       string  `json:"publisher"`
	Kind            Kind    `json:"kind"`
	PublicationYear int     `json:"publication_year"`
	CallNumber      string  `json:"call_number"`
	Edition         *string `json:"edition"`
	IdentifierCode  *string `json:"identifier_code,omitempty"`
	Volume          *string `json:"volume,omitempty"`
	IssueNumber     *string `json:"issue_number,omitempty"`
}

func newWorkResponse(work *Work) workResponse {
	response := workResponse{
		Title:           work.Title,
		Author:          work.AuthorName,
		Publisher:       work.PublisherName,
		Kind:            work.Kind(),
		PublicationYear: work.PublicationYear,
		CallNumber:      work.CallNumber,
		Edition:         work.Edition,
		IdentifierCode:  work.IdentifierCode(),
	}
	if work.ID != nil {
		response.ID = *work.ID
	}

	switch details := work.Details.(type) {
	case MagazineDetails:
		response.Volume = details.Volume
		response.IssueNumber = details.IssueNumber
	case NewspaperDetails:
		response.IssueNumber = details.IssueNumber
	}

	return response
}

// # Handlers

func (handler *Handler) listWorks(writer http.ResponseWriter, request *http.Request) {
	works, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, slice.Map(works, newWorkResponse))
}

func (handler *Handler) createWork(writer http.ResponseWriter, request *http.Request) {
	var input formPayload
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	work, err := handler.service.Save(request.Context(), input.toForm(""))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, newWorkResponse(work))
}

func (handler *Handler) updateWork(writer http.ResponseWriter, request *http.Request) {
	workID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input formPayload
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	work, err := handler.service.Save(request.Context(), input.toForm(strconv.FormatInt(workID, 10)))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, newWorkResponse(work))
}

func (handler *Handler) deleteWork(writer http.ResponseWriter, request *http.Request) {
	workID, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), workID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
