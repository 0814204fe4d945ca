package controllers

import (
	"net/http"
	"sort"

	"civicsense-be/rules"

	"github.com/gin-gonic/gin"
)

// ListDepartments returns the static department directory.
func ListDepartments(c *gin.Context) {
	names := rules.AllDepartments()
	sort.Strings(names)

	departments := make([]rules.DepartmentInfo, 0, len(names))
	for _, name := range names {
		departments = append(departments, rules.DepartmentByName(name))
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}
