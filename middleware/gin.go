package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	trybeauth "github.com/pististrybe/trybeauth"
)

// GinGate adapts Gate to Gin. A rejected request is aborted after the error
// envelope is written; a passing request continues with the claims on
// c.Request's context.
func GinGate(engine *trybeauth.Engine) gin.HandlerFunc {
	gate := Gate(engine)
	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})

		gate(next).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
		}
	}
}
