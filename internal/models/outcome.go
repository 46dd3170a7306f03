package models

import "time"

// ItemOutcome is the single result reported for one SourceItem.
type ItemOutcome struct {
	Item     SourceItem
	Key      string
	Ack      *UploadAck
	Artifact *ConvertedArtifact
	Stage    Stage
	Err      error
	Duration time.Duration
}

func (o ItemOutcome) Succeeded() bool {
	return o.Err == nil
}

func Success(item SourceItem, key string, artifact *ConvertedArtifact, ack *UploadAck) ItemOutcome {
	return ItemOutcome{Item: item, Key: key, Artifact: artifact, Ack: ack}
}

func Failure(item SourceItem, err error) ItemOutcome {
	return ItemOutcome{Item: item, Stage: StageOf(err), Err: err}
}
