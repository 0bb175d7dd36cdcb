// Package quarry exposes JSON:API style resources stored through bun.
//
// An Engine holds the resource graph and the relationship processors of one
// database. Register each model with Register, then build a Service per
// resource:
//
//	e := quarry.NewEngine(db)
//	quarry.Register[Article](e)
//	quarry.Register[Person](e)
//	articles, _ := quarry.NewService[Article, int64](e)
//	page, err := articles.List(ctx, params)
package quarry
