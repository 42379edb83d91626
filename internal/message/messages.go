package message

import "strconv"

// Give hands the target an instance of an item the target already holds in
// its synced collection. Trade uses the same shape.
type Give struct {
	Target        string
	GUID          string
	CustomMessage string
	CustomText    string
	CustomNumber  int
}

type Show struct {
	Target       string
	GUID         string
	CustomText   string
	CustomNumber int
}

type Status struct {
	RequestID string
	Sender    string
}

type Accept struct {
	Sender string
	GUID   string
}

type Reject struct {
	Sender string
	GUID   string
	Reason string
}

// Result answers a Status request with the sender's synced collection state.
type Result struct {
	RequestID  string
	Sender     string
	DatabaseID string
	Version    int64
	Checksum   string
}

func BuildGiveMessage(target, guid, customMessage, customText string, customNumber int) string {
	return Build(TypeGive, target, guid, customMessage, customText, strconv.Itoa(customNumber))
}

func BuildTradeMessage(target, guid, customMessage, customText string, customNumber int) string {
	return Build(TypeTrade, target, guid, customMessage, customText, strconv.Itoa(customNumber))
}

func BuildShowMessage(target, guid, customText string, customNumber int) string {
	return Build(TypeShow, target, guid, customText, strconv.Itoa(customNumber))
}

func BuildStatusMessage(requestID, sender string) string {
	return Build(TypeStatus, requestID, sender)
}

func BuildAcceptMessage(sender, guid string) string {
	return Build(TypeAccept, sender, guid)
}

func BuildRejectMessage(sender, guid, reason string) string {
	return Build(TypeReject, sender, guid, reason)
}

func BuildResultMessage(requestID, sender, databaseID string, version int64, checksum string) string {
	return Build(TypeResult, requestID, sender, databaseID, strconv.FormatInt(version, 10), checksum)
}

// The Decode functions take the fields returned by Parse, tag included.
// Missing trailing fields decode as zero values.

func DecodeGive(fields []string) Give {
	return Give{
		Target:        Field(fields, 1),
		GUID:          Field(fields, 2),
		CustomMessage: Field(fields, 3),
		CustomText:    Field(fields, 4),
		CustomNumber:  IntField(fields, 5),
	}
}

func DecodeShow(fields []string) Show {
	return Show{
		Target:       Field(fields, 1),
		GUID:         Field(fields, 2),
		CustomText:   Field(fields, 3),
		CustomNumber: IntField(fields, 4),
	}
}

func DecodeStatus(fields []string) Status {
	return Status{RequestID: Field(fields, 1), Sender: Field(fields, 2)}
}

func DecodeAccept(fields []string) Accept {
	return Accept{Sender: Field(fields, 1), GUID: Field(fields, 2)}
}

func DecodeReject(fields []string) Reject {
	return Reject{Sender: Field(fields, 1), GUID: Field(fields, 2), Reason: Field(fields, 3)}
}

func DecodeResult(fields []string) Result {
	return Result{
		RequestID:  Field(fields, 1),
		Sender:     Field(fields, 2),
		DatabaseID: Field(fields, 3),
		Version:    int64Field(fields, 4),
		Checksum:   Field(fields, 5),
	}
}
