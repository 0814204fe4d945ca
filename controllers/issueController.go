package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"
	"civicsense-be/rules"
	"civicsense-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Classifier and Images are set in main after the environment is loaded.
// Swappable in tests.
var (
	Classifier services.ImageClassifier
	Images     services.ImageStore
)

var (
	ErrAlreadyVerified   = errors.New("AlreadyVerified")
	ErrSelfVerification  = errors.New("SelfVerificationForbidden")
	ErrIssueClosed       = errors.New("IssueClosed")
	errInvalidTransition = errors.New("invalid status transition")
)

const maxImageBytes = 10 << 20

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}
	objID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return objID, true
}

// CreateIssue handles the multipart issue submission: the image is stored
// first, the classifier is consulted as an advisory hint, severity and
// department are derived from the rule tables, and a single insert seeds the
// pending timeline.
func CreateIssue(c *gin.Context) {
	reporterID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Description string   `form:"description" binding:"required,min=10,max=500"`
		Latitude    *float64 `form:"latitude" binding:"required,gte=-90,lte=90"`
		Longitude   *float64 `form:"longitude" binding:"required,gte=-180,lte=180"`
		Category    string   `form:"category" binding:"omitempty,category"`
		Address     string   `form:"address" binding:"omitempty,max=300"`
	}

	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image of the issue is required"})
		return
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds the 10MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded image"})
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded image"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Image reference is obtained before the insert so a failed insert can be
	// reported and retried without losing the upload.
	var imageURL string
	if Images != nil {
		imageURL, err = Images.Upload(ctx, fileHeader.Filename, bytes.NewReader(imageBytes))
		if err != nil {
			config.Logger.Error("image upload failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed, please retry"})
			return
		}
	}

	classification := services.FallbackClassification()
	if Classifier != nil {
		mimeType := fileHeader.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		classification = Classifier.Classify(ctx, imageBytes, mimeType)
	}

	// The reporter's category always wins; the classifier is advisory.
	category := classification.Category
	if input.Category != "" {
		category = models.IssueCategory(input.Category)
	}

	score, level := rules.ComputeSeverity(category, input.Description)
	department := rules.DepartmentFor(category)
	now := time.Now()

	issue := models.Issue{
		ID:            primitive.NewObjectID(),
		ReportedBy:    reporterID,
		Description:   input.Description,
		Category:      category,
		AIConfidence:  classification.Confidence,
		Location:      models.NewGeoPoint(*input.Longitude, *input.Latitude),
		Address:       input.Address,
		ImageURL:      imageURL,
		Severity:      level,
		SeverityScore: score,
		Status:        models.Pending,
		Timeline: []models.TimelineEntry{
			{Status: models.Pending, Timestamp: now, Actor: reporterID},
		},
		VerifiedBy:    []primitive.ObjectID{},
		Verifications: 0,
		Department:    department,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	issueCollection := config.GetCollection("issues")
	if _, err := issueCollection.InsertOne(ctx, issue); err != nil {
		config.Logger.Error("inserting issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue, please retry"})
		return
	}

	userCollection := config.GetCollection("users")
	if _, err := userCollection.UpdateOne(ctx, bson.M{"_id": reporterID},
		bson.M{"$inc": bson.M{"issuesReported": 1}}); err != nil {
		config.Logger.Warn("incrementing issuesReported", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"issue":                    issue,
		"aiSuggestion":             classification,
		"predictedResolutionHours": rules.PredictedResolutionHours(department, level),
	})
}

// GetAllIssues handles the filtered, searchable, geo-aware paginated listing.
func GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query, err := parseIssueQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, limit := parsePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("limit", "10"))
	filter := query.Filter()

	issueCollection := config.GetCollection("issues")
	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSort(parseSort(c.DefaultQuery("sortBy", "createdAt"), c.DefaultQuery("sortOrder", "desc"))).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0, limit)
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"issues": issues,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": totalCount,
			"pages": totalPages(totalCount, limit),
		},
	})
}

// GetMyIssues lists issues reported by the authenticated user.
func GetMyIssues(c *gin.Context) {
	reporterID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")
	cursor, err := issueCollection.Find(ctx, bson.M{"reportedBy": reporterID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

// GetIssue retrieves a single issue with reporter, assignee, verifier and
// timeline actor names populated.
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")
	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	names := lookupUserNames(ctx, collectActorIDs(&issue))

	timeline := make([]gin.H, 0, len(issue.Timeline))
	for _, entry := range issue.Timeline {
		timeline = append(timeline, gin.H{
			"status":    entry.Status,
			"timestamp": entry.Timestamp,
			"actor":     gin.H{"id": entry.Actor, "name": names[entry.Actor]},
			"note":      entry.Note,
		})
	}

	verifiers := make([]gin.H, 0, len(issue.VerifiedBy))
	for _, id := range issue.VerifiedBy {
		verifiers = append(verifiers, gin.H{"id": id, "name": names[id]})
	}

	response := gin.H{
		"id":                       issue.ID,
		"description":              issue.Description,
		"category":                 issue.Category,
		"aiConfidence":             issue.AIConfidence,
		"location":                 issue.Location,
		"address":                  issue.Address,
		"imageUrl":                 issue.ImageURL,
		"severity":                 issue.Severity,
		"severityScore":            issue.SeverityScore,
		"status":                   issue.Status,
		"timeline":                 timeline,
		"verifiedBy":               verifiers,
		"verifications":            issue.Verifications,
		"isAuthentic":              issue.IsAuthentic,
		"assignedDepartment":       issue.Department,
		"department":               rules.DepartmentByName(issue.Department),
		"resolution":               issue.Resolution,
		"reportedBy":               gin.H{"id": issue.ReportedBy, "name": names[issue.ReportedBy]},
		"predictedResolutionHours": rules.PredictedResolutionHours(issue.Department, issue.Severity),
		"createdAt":                issue.CreatedAt,
		"updatedAt":                issue.UpdatedAt,
	}
	if issue.AssignedTo != nil {
		response["assignedTo"] = gin.H{"id": *issue.AssignedTo, "name": names[*issue.AssignedTo]}
	}

	c.JSON(http.StatusOK, response)
}

func collectActorIDs(issue *models.Issue) []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{issue.ReportedBy: true}
	ids := []primitive.ObjectID{issue.ReportedBy}
	add := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range issue.VerifiedBy {
		add(id)
	}
	for _, entry := range issue.Timeline {
		add(entry.Actor)
	}
	if issue.AssignedTo != nil {
		add(*issue.AssignedTo)
	}
	return ids
}

func lookupUserNames(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]string {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names
	}

	userCollection := config.GetCollection("users")
	cursor, err := userCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		config.Logger.Warn("looking up user names", zap.Error(err))
		return names
	}
	defer cursor.Close(ctx)

	var users []struct {
		ID   primitive.ObjectID `bson:"_id"`
		Name string             `bson:"name"`
	}
	if err := cursor.All(ctx, &users); err != nil {
		return names
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}

// UpdateIssue lets authority/admin users transition status or assign an
// authority. Every accepted transition appends exactly one timeline entry.
func UpdateIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Status     *string `json:"status,omitempty"`
		AssignedTo *string `json:"assignedTo,omitempty"`
		Note       string  `json:"note,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Status == nil && input.AssignedTo == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if input.Status != nil {
		newStatus := models.IssueStatus(*input.Status)
		if !models.ValidStatuses[newStatus] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		var resolution *models.Resolution
		if newStatus == models.Resolved {
			resolution = &models.Resolution{ResolvedAt: time.Now(), ResolvedBy: actorID, Notes: input.Note}
		}
		if err := transitionStatus(ctx, issueID, newStatus, actorID, input.Note, resolution); err != nil {
			respondTransitionError(c, err)
			return
		}
	}

	if input.AssignedTo != nil {
		assigneeID, err := primitive.ObjectIDFromHex(*input.AssignedTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID"})
			return
		}
		issueCollection := config.GetCollection("issues")
		result, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID},
			bson.M{"$set": bson.M{"assignedTo": assigneeID, "updatedAt": time.Now()}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign issue"})
			return
		}
		if result.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
			return
		}
	}

	respondWithIssue(c, ctx, issueID, http.StatusOK)
}

// ResolveIssue closes an in-progress issue with an optional proof image and
// notes, populating the resolution block.
func ResolveIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Notes      string `json:"notes,omitempty"`
		ProofImage string `json:"proofImage,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resolution := &models.Resolution{
		ResolvedAt: time.Now(),
		ResolvedBy: actorID,
		ProofImage: input.ProofImage,
		Notes:      input.Notes,
	}
	if err := transitionStatus(ctx, issueID, models.Resolved, actorID, input.Notes, resolution); err != nil {
		respondTransitionError(c, err)
		return
	}

	respondWithIssue(c, ctx, issueID, http.StatusOK)
}

// transitionStatus applies the guarded state machine. The update is
// conditional on the status still being the one the guard approved, so a
// concurrent transition loses cleanly instead of double-appending.
func transitionStatus(ctx context.Context, issueID primitive.ObjectID, newStatus models.IssueStatus, actorID primitive.ObjectID, note string, resolution *models.Resolution) error {
	issueCollection := config.GetCollection("issues")

	var issue models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		if err == mongo.ErrNoDocuments {
			return mongo.ErrNoDocuments
		}
		return err
	}

	if !models.CanTransition(issue.Status, newStatus) {
		return errInvalidTransition
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{"status": newStatus, "updatedAt": now},
		"$push": bson.M{"timeline": models.TimelineEntry{
			Status: newStatus, Timestamp: now, Actor: actorID, Note: note,
		}},
	}
	if resolution != nil {
		update["$set"].(bson.M)["resolution"] = resolution
	}

	result, err := issueCollection.UpdateOne(ctx,
		bson.M{"_id": issueID, "status": issue.Status}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return errInvalidTransition
	}
	return nil
}

func respondTransitionError(c *gin.Context, err error) {
	switch {
	case err == mongo.ErrNoDocuments:
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case errors.Is(err, errInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status transition not allowed"})
	default:
		config.Logger.Error("status transition failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
	}
}

func respondWithIssue(c *gin.Context, ctx context.Context, issueID primitive.ObjectID, status int) {
	issueCollection := config.GetCollection("issues")
	var issue models.Issue
	if err := issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}
	c.JSON(status, gin.H{"issue": issue})
}

// VerifyIssue records a citizen's endorsement. The verifier set is grown with
// a single conditional pipeline update so concurrent verifications can never
// double-count toward the threshold; verifications is recomputed from the
// post-update set size in the same atomic step.
func VerifyIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	verifierID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		IsReal *bool `json:"isReal" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !*input.IsReal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only positive verifications are recorded"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	flipCond := bson.M{"$and": bson.A{
		bson.M{"$gte": bson.A{"$verifications", models.VerificationThreshold}},
		bson.M{"$eq": bson.A{"$isAuthentic", false}},
	}}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"verifiedBy": bson.M{"$concatArrays": bson.A{"$verifiedBy", bson.A{verifierID}}},
		}},
		bson.M{"$set": bson.M{
			"verifications": bson.M{"$size": "$verifiedBy"},
		}},
		bson.M{"$set": bson.M{
			"isAuthentic": bson.M{"$cond": bson.A{flipCond, true, "$isAuthentic"}},
			"status":      bson.M{"$cond": bson.A{flipCond, models.Verified, "$status"}},
			"timeline": bson.M{"$cond": bson.A{
				flipCond,
				bson.M{"$concatArrays": bson.A{"$timeline", bson.A{bson.M{
					"status":    models.Verified,
					"timestamp": "$$NOW",
					"actor":     verifierID,
				}}}},
				"$timeline",
			}},
			"updatedAt": "$$NOW",
		}},
	}

	filter := bson.M{
		"_id":        issueID,
		"reportedBy": bson.M{"$ne": verifierID},
		"verifiedBy": bson.M{"$ne": verifierID},
		"status":     bson.M{"$nin": bson.A{models.Resolved, models.Rejected, models.Duplicate}},
	}

	var updated models.Issue
	err = issueCollection.FindOneAndUpdate(ctx, filter, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err == nil {
		userCollection := config.GetCollection("users")
		// Trust score is capped, so the increment is a pipeline update too.
		_, statErr := userCollection.UpdateOne(ctx, bson.M{"_id": verifierID}, bson.A{
			bson.M{"$set": bson.M{
				"issuesVerified": bson.M{"$add": bson.A{"$issuesVerified", 1}},
				"trustScore":     bson.M{"$min": bson.A{models.MaxTrustScore, bson.M{"$add": bson.A{"$trustScore", 1}}}},
				"updatedAt":      "$$NOW",
			}},
		})
		if statErr != nil {
			config.Logger.Warn("updating verifier reputation", zap.Error(statErr))
		}

		c.JSON(http.StatusOK, gin.H{"issue": updated})
		return
	}

	if err != mongo.ErrNoDocuments {
		config.Logger.Error("recording verification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record verification"})
		return
	}

	// The conditional update matched nothing; fetch once to say why.
	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	switch {
	case err == mongo.ErrNoDocuments:
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
	case issue.ReportedBy == verifierID:
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrSelfVerification.Error()})
	case issue.HasVerifier(verifierID):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrAlreadyVerified.Error()})
	case models.IsTerminal(issue.Status):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrIssueClosed.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record verification"})
	}
}

// DeleteIssue allows the reporter (or an admin) to delete an issue.
func DeleteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")
	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	role, _ := c.Get("role")
	isAdmin := role == string(models.RoleAdmin)
	if issue.ReportedBy != userID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this issue"})
		return
	}

	if _, err := issueCollection.DeleteOne(ctx, bson.M{"_id": issueID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// MapIssues returns the minimal projection used by the map view. Resolved and
// rejected issues are excluded unless a status filter is explicitly given.
func MapIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query, err := parseIssueQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter := query.Filter()
	if query.Status == "" {
		filter["status"] = bson.M{"$nin": bson.A{models.Resolved, models.Rejected}}
	}

	projection := bson.M{
		"location": 1, "category": 1, "severity": 1, "status": 1,
		"verifications": 1, "imageUrl": 1, "description": 1,
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(500).
		SetProjection(projection)

	issueCollection := config.GetCollection("issues")
	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve map issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode map issues"})
		return
	}

	points := make([]gin.H, 0, len(issues))
	for _, issue := range issues {
		points = append(points, gin.H{
			"id":            issue.ID,
			"location":      issue.Location,
			"category":      issue.Category,
			"severity":      issue.Severity,
			"status":        issue.Status,
			"verifications": issue.Verifications,
			"thumbnail":     issue.ImageURL,
			"description":   truncate(issue.Description, 80),
		})
	}

	c.JSON(http.StatusOK, gin.H{"issues": points})
}

// Heatmap groups open issues into ~100m grid cells (coordinates rounded to 3
// decimal places) weighted by count and average severity.
func Heatmap(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{
			"status": bson.M{"$nin": bson.A{models.Resolved, models.Rejected}},
		}},
		{"$project": bson.M{
			"lat":           bson.M{"$round": bson.A{bson.M{"$arrayElemAt": bson.A{"$location.coordinates", 1}}, 3}},
			"lng":           bson.M{"$round": bson.A{bson.M{"$arrayElemAt": bson.A{"$location.coordinates", 0}}, 3}},
			"severityScore": 1,
		}},
		{"$group": bson.M{
			"_id":              bson.M{"lat": "$lat", "lng": "$lng"},
			"count":            bson.M{"$sum": 1},
			"avgSeverityScore": bson.M{"$avg": "$severityScore"},
		}},
		{"$project": bson.M{
			"_id":              0,
			"lat":              "$_id.lat",
			"lng":              "$_id.lng",
			"count":            1,
			"avgSeverityScore": 1,
			"weight":           bson.M{"$multiply": bson.A{"$count", "$avgSeverityScore"}},
		}},
	}

	issueCollection := config.GetCollection("issues")
	cursor, err := issueCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build heatmap"})
		return
	}
	defer cursor.Close(ctx)

	cells := make([]bson.M, 0)
	if err := cursor.All(ctx, &cells); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode heatmap"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cells": cells})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
