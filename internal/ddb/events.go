// Package ddb decodes the DynamoDB stream events consumed by the
// trigger-import Lambda.
package ddb

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StreamEvent represents a DynamoDB stream event
type StreamEvent struct {
	Records []StreamEventRecord `json:"Records"`
}

// StreamEventRecord represents a single DynamoDB stream record
type StreamEventRecord struct {
	AWSRegion      string       `json:"awsRegion"`
	Change         StreamRecord `json:"dynamodb"`
	EventID        string       `json:"eventID"`
	EventName      string       `json:"eventName"`
	EventSource    string       `json:"eventSource"`
	EventVersion   string       `json:"eventVersion"`
	EventSourceArn string       `json:"eventSourceARN"`
}

// StreamRecord represents the DynamoDB stream data
type StreamRecord struct {
	ApproximateCreationDateTime int64                           `json:"ApproximateCreationDateTime,omitempty"`
	Keys                        map[string]types.AttributeValue `json:"Keys,omitempty"`
	NewImage                    map[string]types.AttributeValue `json:"NewImage,omitempty"`
	OldImage                    map[string]types.AttributeValue `json:"OldImage,omitempty"`
	SequenceNumber              string                          `json:"SequenceNumber"`
	SizeBytes                   int64                           `json:"SizeBytes"`
	StreamViewType              string                          `json:"StreamViewType"`
}

// OperationType represents the type of DynamoDB operation
type OperationType string

const (
	OperationTypeInsert OperationType = "INSERT"
	OperationTypeModify OperationType = "MODIFY"
	OperationTypeRemove OperationType = "REMOVE"
)

// Record is a processed stream record. The partition key is the document
// id, the sort key names the search collection the document belongs in,
// and Document holds the fields to index.
type Record struct {
	ID         string         `dynamodbav:"pk"`
	Collection string         `dynamodbav:"sk"`
	Document   map[string]any `dynamodbav:"object"`
}

// UnmarshalRecord converts a DynamoDB image into a Record struct
func UnmarshalRecord(image map[string]types.AttributeValue) (Record, error) {
	var record Record
	err := attributevalue.UnmarshalMap(image, &record)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}
