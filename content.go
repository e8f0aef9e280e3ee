package main

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

type Highlight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Period       string   `json:"period"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements"`
	Tech         []string `json:"tech"`
}

type Project struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	GitHub      string   `json:"github,omitempty"`
	Demo        string   `json:"demo,omitempty"`
}

type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type SkillGroup struct {
	Category string  `json:"category"`
	Skills   []Skill `json:"skills"`
}

// filterProjects returns the projects carrying tag. An empty tag or "all"
// returns every project.
func filterProjects(projects []Project, tag string) []Project {
	if tag == "" || strings.EqualFold(tag, "all") {
		return projects
	}
	out := []Project{}
	for _, p := range projects {
		if slices.Contains(p.Tags, tag) {
			out = append(out, p)
		}
	}
	return out
}

func registerContentRoutes(r gin.IRoutes) {
	r.GET("/profile", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":       "Triumf Avdyli",
			"headline":   "Full Stack Developer",
			"about":      AboutMe,
			"highlights": Highlights,
			"location":   "Gjilan, Kosovo",
		})
	})

	r.GET("/experience", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"experience": Experiences})
	})

	r.GET("/projects", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"projects": filterProjects(Projects, c.Query("tag"))})
	})

	r.GET("/skills", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"skills": SkillGroups})
	})
}
