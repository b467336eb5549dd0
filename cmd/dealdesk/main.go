package main

import "dealdesk/internal/app"

// @title                       dealdesk API
// @version                     1.0
// @description                 Deal pipelines, stage transitions and pipeline analytics.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
