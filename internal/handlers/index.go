package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/msb-blog/apiserver/internal/model"
)

const (
	serviceName    = "MSB is My Sweet Blog."
	serviceVersion = "v1"
)

// Link is one entry of the discovery index.
type Link struct {
	Endpoint    string         `json:"endpoint"`
	Method      string         `json:"method"`
	Description string         `json:"description"`
	Example     map[string]any `json:"example,omitempty"`
}

// IndexResponse is the service descriptor served at /v1.
type IndexResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Links   []Link `json:"links"`
}

// NewIndexHandler builds the discovery endpoint by reflecting over the
// registered model descriptors. The link set is fixed at startup: five
// synthesized operations per model plus the login and self entries.
func NewIndexHandler(models []model.Descriptor) http.HandlerFunc {
	links := make([]Link, 0, 5*len(models)+2)
	for _, desc := range models {
		links = append(links, linksForModel(desc)...)
	}
	links = append(links,
		Link{
			Endpoint: "/v1/users/login",
			Method:   http.MethodPost,
			Description: "Request a session cookie to use for future requests " +
				"that require authorization.",
		},
		Link{
			Endpoint:    "/v1",
			Method:      "<any>",
			Description: "Retrieve a listing of available API endpoints.",
		},
	)

	response := IndexResponse{
		Service: serviceName,
		Version: serviceVersion,
		Links:   links,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response)
	}
}

// linksForModel enumerates the five synthesized operations of a model.
func linksForModel(desc model.Descriptor) []Link {
	typeName := capitalize(desc.Name)
	collection := "/v1/" + desc.Plural()
	item := fmt.Sprintf("%s/<%s_id>", collection, desc.Name)

	return []Link{
		{
			Endpoint:    collection,
			Method:      http.MethodGet,
			Description: fmt.Sprintf("Get a listing of all %s objects.", typeName),
		},
		{
			Endpoint:    collection,
			Method:      http.MethodPost,
			Description: fmt.Sprintf("Create a new %s object.", typeName),
			Example:     desc.Example(),
		},
		{
			Endpoint:    item,
			Method:      http.MethodGet,
			Description: fmt.Sprintf("Retrieve the specified %s object.", typeName),
		},
		{
			Endpoint:    item,
			Method:      http.MethodPost,
			Description: fmt.Sprintf("Update the specified %s object with a MongoDB query document.", typeName),
			Example:     desc.UpdateExample(),
		},
		{
			Endpoint:    item,
			Method:      http.MethodDelete,
			Description: fmt.Sprintf("Delete the specified %s object.", typeName),
		},
	}
}

func capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
