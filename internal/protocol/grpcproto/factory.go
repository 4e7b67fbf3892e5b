package grpcproto

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/relentless-eng/relentless/internal/errs"
	"github.com/relentless-eng/relentless/internal/template"
)

// BuiltRequest is the factory's pure output: the resolved method, the
// dynamic request message, and the response message descriptor that Do
// allocates the response message from.
type BuiltRequest struct {
	FullMethod string // "/package.Service/Method"
	Req        *dynamic.Message
	RespDesc   *desc.MessageDescriptor
}

// Produce resolves a descriptor pool from one of the three sources, looks
// up service/method from target ("service/method"), and builds a dynamic
// request message from the configured payload.
func Produce(ctx context.Context, conn *grpc.ClientConn, destinationURI, target string, req Request, vars template.Vars) (BuiltRequest, error) {
	serviceName, methodName, err := splitTarget(target)
	if err != nil {
		return BuiltRequest{}, err
	}

	methodDesc, err := resolveMethod(ctx, conn, req.Descriptor, serviceName, methodName)
	if err != nil {
		return BuiltRequest{}, err
	}

	msg := dynamic.NewMessage(methodDesc.GetInputType())
	if err := populateMessage(msg, req.Message, vars); err != nil {
		return BuiltRequest{}, err
	}

	return BuiltRequest{
		FullMethod: "/" + serviceName + "/" + methodName,
		Req:        msg,
		RespDesc:   methodDesc.GetOutputType(),
	}, nil
}

func splitTarget(target string) (service, method string, err error) {
	i := strings.LastIndex(target, "/")
	if i < 0 {
		return "", "", &errs.FactoryError{Msg: fmt.Sprintf("target %q is not service/method", target)}
	}
	return target[:i], target[i+1:], nil
}

func resolveMethod(ctx context.Context, conn *grpc.ClientConn, d Descriptor, serviceName, methodName string) (*desc.MethodDescriptor, error) {
	var svc *desc.ServiceDescriptor
	var err error

	switch d.Kind {
	case DescriptorProtos:
		svc, err = resolveFromProtos(d, serviceName)
	case DescriptorBin:
		svc, err = resolveFromBin(d.Path, serviceName)
	case DescriptorReflection:
		svc, err = resolveFromReflection(ctx, conn, serviceName)
	default:
		return nil, &errs.FactoryError{Msg: fmt.Sprintf("unknown descriptor kind %q", d.Kind)}
	}
	if err != nil {
		return nil, err
	}

	method := svc.FindMethodByName(methodNameOnly(methodName))
	if method == nil {
		return nil, &errs.FactoryError{Msg: fmt.Sprintf("no such method %q on service %q", methodName, serviceName)}
	}
	return method, nil
}

func methodNameOnly(methodName string) string {
	if i := strings.LastIndex(methodName, "."); i >= 0 {
		return methodName[i+1:]
	}
	return methodName
}

func resolveFromProtos(d Descriptor, serviceName string) (*desc.ServiceDescriptor, error) {
	parser := protoparse.Parser{ImportPaths: d.ImportPath}
	files, err := parser.ParseFiles(d.Files...)
	if err != nil {
		return nil, &errs.FactoryError{Msg: "parse proto files", Cause: err}
	}
	for _, f := range files {
		if svc := f.FindService(serviceName); svc != nil {
			return svc, nil
		}
	}
	return nil, &errs.FactoryError{Msg: fmt.Sprintf("no such service %q in compiled protos", serviceName)}
}

func resolveFromBin(path, serviceName string) (*desc.ServiceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.FactoryError{Msg: "read file descriptor set", Cause: err}
	}
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, &errs.FactoryError{Msg: "parse file descriptor set", Cause: err}
	}
	files, err := desc.CreateFileDescriptorsFromSet(&set)
	if err != nil {
		return nil, &errs.FactoryError{Msg: "build descriptors from set", Cause: err}
	}
	for _, f := range files {
		if svc := f.FindService(serviceName); svc != nil {
			return svc, nil
		}
	}
	return nil, &errs.FactoryError{Msg: fmt.Sprintf("no such service %q in descriptor set", serviceName)}
}

// resolveFromReflection walks the server's reflection API, following
// dependency[] until the pool accepts the proto.
func resolveFromReflection(ctx context.Context, conn *grpc.ClientConn, serviceName string) (*desc.ServiceDescriptor, error) {
	client := grpcreflect.NewClientAuto(ctx, conn)
	defer client.Reset()

	svc, err := client.ResolveService(serviceName)
	if err != nil {
		return nil, &errs.FactoryError{Msg: fmt.Sprintf("reflection: resolve service %q", serviceName), Cause: err}
	}
	return svc, nil
}

func populateMessage(msg *dynamic.Message, m Message, vars template.Vars) error {
	switch m.Kind {
	case "", MessageEmpty:
		return nil
	case MessagePlaintext:
		rendered, err := template.Render(m.Plaintext, vars)
		if err != nil {
			return &errs.FactoryError{Msg: "render plaintext message", Cause: err}
		}
		return msg.UnmarshalJSON([]byte(rendered))
	case MessageJSON:
		rendered, err := template.RenderJSONLeaves(m.JSON, vars)
		if err != nil {
			return &errs.FactoryError{Msg: "render json message", Cause: err}
		}
		data, err := json.Marshal(rendered)
		if err != nil {
			return &errs.FactoryError{Msg: "serialize json message", Cause: err}
		}
		return msg.UnmarshalJSON(data)
	default:
		return &errs.FactoryError{Msg: fmt.Sprintf("unknown message kind %q", m.Kind)}
	}
}

// Do invokes the resolved method through conn using the dynamic codec
// (codec.go), decoding the response back to JSON bytes.
func Do(ctx context.Context, conn *grpc.ClientConn, built BuiltRequest) (Reply, error) {
	resp := dynamic.NewMessage(built.RespDesc)
	if err := conn.Invoke(ctx, built.FullMethod, built.Req, resp, grpc.ForceCodec(dynamicCodec{})); err != nil {
		return Reply{}, err
	}
	data, err := resp.MarshalJSON()
	if err != nil {
		return Reply{}, fmt.Errorf("marshal response to json: %w", err)
	}
	return Reply{JSON: data}, nil
}
