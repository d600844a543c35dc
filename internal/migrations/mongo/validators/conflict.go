package validators

import "go.mongodb.org/mongo-driver/bson"

var ConflictValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking1_id",
			"booking2_id",
			"user1_id",
			"user2_id",
			"conflict_start",
			"conflict_end",
			"resolved",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"booking1_id": bson.M{
				"bsonType": "string",
			},

			"booking2_id": bson.M{
				"bsonType": "string",
			},

			"user1_id": bson.M{
				"bsonType": "string",
			},

			"user2_id": bson.M{
				"bsonType": "string",
			},

			"user1_name": bson.M{
				"bsonType": "string",
			},

			"user2_name": bson.M{
				"bsonType": "string",
			},

			"conflict_start": bson.M{
				"bsonType": "date",
			},

			"conflict_end": bson.M{
				"bsonType": "date",
			},

			"resolved": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
