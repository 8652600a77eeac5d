package proto

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

const ledgerProtoPath = "proto/ledger.proto"

// File_ledger_proto 對應 ledger.proto 的 file descriptor，註冊後 gRPC reflection 才查得到 service
var File_ledger_proto protoreflect.FileDescriptor

func init() {
	fd, err := buildLedgerFile()
	if err != nil {
		panic(fmt.Sprintf("build %s descriptor: %v", ledgerProtoPath, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s descriptor: %v", ledgerProtoPath, err))
	}
	File_ledger_proto = fd
}

func buildLedgerFile() (protoreflect.FileDescriptor, error) {
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(in),
			OutputType: proto.String(out),
		}
	}

	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(ledgerProtoPath),
		Package: proto.String("interestledger.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			"google/protobuf/wrappers.proto",
			"google/protobuf/struct.proto",
			"google/protobuf/empty.proto",
		},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/JoeShih716/go-interest-ledger/proto"),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("LedgerService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("OpenAccount", ".google.protobuf.StringValue", ".google.protobuf.BoolValue"),
				method("DepositFunds", ".google.protobuf.Struct", ".google.protobuf.Empty"),
				method("CalculateInterest", ".google.protobuf.StringValue", ".google.protobuf.Empty"),
				method("GetStatement", ".google.protobuf.StringValue", ".google.protobuf.ListValue"),
			},
		}},
	}
	return protodesc.NewFile(file, protoregistry.GlobalFiles)
}
