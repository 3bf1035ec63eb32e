// @title           RAG Chat API
// @version         1.0
// @description     Document ingestion, retrieval-augmented chat streaming over SSE, and usage metering.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package utils

//run postgres with pgvector
//docker run -p 5432:5432 -e POSTGRES_PASSWORD=postgres -d pgvector/pgvector:pg16

//run redis
//docker run -p 6379:6379 -d redis

//qdrant, only with RAGCHAT_VECTOR_BACKEND=qdrant
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//regenerate cmd/api/docs after changing handler annotations
//swag init -g internal/adapter/utils/docs_info.go --parseDependency --parseInternal --output ./cmd/api/docs
